package certificate

import (
	"slices"
	"strings"
)

// TagGroup selects one of the three tag lists.
type TagGroup string

const (
	TagGroupArrival TagGroup = "arrival"
	TagGroupWork    TagGroup = "work"
	TagGroupCare    TagGroup = "care"
)

var (
	ArrivalVocabulary = []string{
		"Color fading",
		"Scuffs / scratches",
		"Edge wear",
		"Hardware tarnish",
		"Loss of structure",
		"Ink transfer",
		"Water marks",
		"Oil stains",
		"Odor",
		"Interior dirt",
		"Cracking leather",
	}
	WorkVocabulary = []string{
		"Deep clean",
		"Edge repair",
		"Color touch-up",
		"Conditioning",
		"Hardware polish",
		"Odor neutralisation",
		"Stitch reinforcement",
		"Protective coating",
		"Finish refinement",
	}
	CareVocabulary = []string{
		"Keep dry 48h",
		"Store upright",
		"Avoid sunlight",
		"Use dust bag",
		"Wipe after use",
		"Condition 6 months",
		"Avoid overloading",
	}
)

// TagGroups lists the groups in form order.
var TagGroups = []TagGroup{TagGroupArrival, TagGroupWork, TagGroupCare}

// TagOption is one checkbox of a group's grid.
type TagOption struct {
	Term    string `json:"term"`
	Checked bool   `json:"checked"`
	Custom  bool   `json:"custom,omitempty"`
}

// ParseTagGroup validates a tag group name.
func ParseTagGroup(name string) (TagGroup, error) {
	switch TagGroup(name) {
	case TagGroupArrival, TagGroupWork, TagGroupCare:
		return TagGroup(name), nil
	}
	return "", ErrUnknownTagGroup
}

// Vocabulary returns the base terms offered for a group.
func Vocabulary(group TagGroup) ([]string, error) {
	switch group {
	case TagGroupArrival:
		return slices.Clone(ArrivalVocabulary), nil
	case TagGroupWork:
		return slices.Clone(WorkVocabulary), nil
	case TagGroupCare:
		return slices.Clone(CareVocabulary), nil
	}
	return nil, ErrUnknownTagGroup
}

func (d *Draft) tagList(group TagGroup) (*[]string, error) {
	switch group {
	case TagGroupArrival:
		return &d.Tags.ArrivalIssues, nil
	case TagGroupWork:
		return &d.Tags.WorkPerformed, nil
	case TagGroupCare:
		return &d.Tags.CarePlan, nil
	}
	return nil, ErrUnknownTagGroup
}

// TagsFor returns the current selection of a group.
func (d *Draft) TagsFor(group TagGroup) ([]string, error) {
	list, err := d.tagList(group)
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// TagOptions returns the group's base vocabulary with the draft's selection
// applied, followed once each by selected terms outside the vocabulary.
func (d *Draft) TagOptions(group TagGroup) ([]TagOption, error) {
	base, err := Vocabulary(group)
	if err != nil {
		return nil, err
	}
	selected, err := d.TagsFor(group)
	if err != nil {
		return nil, err
	}
	opts := make([]TagOption, 0, len(base)+len(selected))
	for _, term := range base {
		opts = append(opts, TagOption{Term: term, Checked: slices.Contains(selected, term)})
	}
	seen := make(map[string]bool)
	for _, term := range selected {
		if seen[term] || slices.Contains(base, term) {
			continue
		}
		seen[term] = true
		opts = append(opts, TagOption{Term: term, Checked: true, Custom: true})
	}
	return opts, nil
}

// ToggleTag removes every occurrence of tag when present and appends it
// otherwise. selected reports the state after the call.
func (d *Draft) ToggleTag(group TagGroup, tag string) (selected bool, err error) {
	list, err := d.tagList(group)
	if err != nil {
		return false, err
	}
	if tag == "" {
		return false, ErrEmptyTag
	}
	if slices.Contains(*list, tag) {
		*list = slices.DeleteFunc(*list, func(s string) bool { return s == tag })
		return false, nil
	}
	*list = append(*list, tag)
	return true, nil
}

// AddTag appends a trimmed free-form tag. Duplicates are kept. Blank input
// is ignored and added is false.
func (d *Draft) AddTag(group TagGroup, text string) (added bool, err error) {
	list, err := d.tagList(group)
	if err != nil {
		return false, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}
	*list = append(*list, text)
	return true, nil
}
