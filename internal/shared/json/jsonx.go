package jsonx

import "github.com/goccy/go-json"

// Drafts carry several base64 photos each, so encoding goes through goccy.
var (
	MarshalIndent = json.MarshalIndent
	Unmarshal     = json.Unmarshal
)
