package certificate

import (
	"errors"
	"slices"
	"strings"
)

// DefaultDisclaimer is printed at the foot of every certificate until edited.
const DefaultDisclaimer = "This certificate documents restorative work performed. Cosmetic enhancement does not imply manufacturer endorsement."

// MaxImagesPerSide bounds the before/after photo arrays.
const MaxImagesPerSide = 4

var (
	ErrDerivedDimension = errors.New("overall is derived and cannot be edited")
	ErrUnknownDimension = errors.New("unknown metric dimension")
	ErrUnknownSide      = errors.New("unknown side")
	ErrUnknownTagGroup  = errors.New("unknown tag group")
	ErrEmptyTag         = errors.New("tag is empty")
)

// Dimension names one row of the metrics table.
type Dimension string

const (
	DimensionColor       Dimension = "Color"
	DimensionStructure   Dimension = "Structure"
	DimensionHardware    Dimension = "Hardware"
	DimensionCleanliness Dimension = "Cleanliness"
	DimensionOdor        Dimension = "Odor"
	DimensionOverall     Dimension = "Overall"
)

// TrackedDimensions are the user-edited dimensions, in display order.
var TrackedDimensions = []Dimension{
	DimensionColor,
	DimensionStructure,
	DimensionHardware,
	DimensionCleanliness,
	DimensionOdor,
}

// AllDimensions returns the tracked dimensions followed by Overall.
func AllDimensions() []Dimension {
	return append(slices.Clone(TrackedDimensions), DimensionOverall)
}

// ParseDimension resolves a dimension name case-sensitively first, then
// case-insensitively.
func ParseDimension(name string) (Dimension, error) {
	for _, dim := range AllDimensions() {
		if string(dim) == name {
			return dim, nil
		}
	}
	for _, dim := range AllDimensions() {
		if strings.EqualFold(string(dim), name) {
			return dim, nil
		}
	}
	return "", ErrUnknownDimension
}

// Tracked reports whether the dimension is user-edited.
func (d Dimension) Tracked() bool {
	return slices.Contains(TrackedDimensions, d)
}

// Side selects the before or after half of a reading or photo set.
type Side string

const (
	SideBefore Side = "before"
	SideAfter  Side = "after"
)

// ParseSide validates a side name.
func ParseSide(name string) (Side, error) {
	switch Side(name) {
	case SideBefore, SideAfter:
		return Side(name), nil
	}
	return "", ErrUnknownSide
}

// Reading holds the raw before/after strings exactly as entered.
type Reading struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

func (r Reading) value(side Side) string {
	if side == SideAfter {
		return r.After
	}
	return r.Before
}

type Customer struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type Article struct {
	NameSelect string `json:"name_select"`
	NameCustom string `json:"name_custom"`
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Serial     string `json:"serial"`
	Service    string `json:"service"`
	Technician string `json:"technician"`
}

type Dates struct {
	Picked    string `json:"picked"`
	Completed string `json:"completed"`
	Delivered string `json:"delivered"`
	Warranty  string `json:"warranty"`
	NextCare  string `json:"next_care"`
}

// Condition carries the free-text condition notes taken at intake and handover.
type Condition struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

type Tags struct {
	ArrivalIssues []string `json:"arrival_issues"`
	WorkPerformed []string `json:"work_performed"`
	CarePlan      []string `json:"care_plan"`
}

type Images struct {
	Before []string `json:"before"`
	After  []string `json:"after"`
}

type DisplayMode struct {
	Plain    bool `json:"plain"`
	PrintFit bool `json:"print_fit"`
}

// Draft is the full editable state of one restoration certificate.
type Draft struct {
	Customer           Customer              `json:"customer"`
	Article            Article               `json:"article"`
	Dates              Dates                 `json:"dates"`
	Condition          Condition             `json:"condition"`
	Metrics            map[Dimension]Reading `json:"metrics"`
	ImprovementPercent string                `json:"improvement_percent"`
	Handle             string                `json:"handle"`
	VerifyURL          string                `json:"verify_url"`
	RefCode            string                `json:"ref_code"`
	Tags               Tags                  `json:"tags"`
	Images             Images                `json:"images"`
	Logo               string                `json:"logo,omitempty"`
	LogoURL            string                `json:"logo_url"`
	LogoBase64         string                `json:"logo_base64"`
	CertificateID      string                `json:"certificate_id"`
	Display            DisplayMode           `json:"display"`
	Disclaimer         string                `json:"disclaimer"`
}

// NewDraft returns an empty draft with the default disclaimer.
func NewDraft() *Draft {
	d := &Draft{Disclaimer: DefaultDisclaimer}
	d.Normalize()
	return d
}

// Normalize fills nil collections after decoding a stored draft and enforces
// the photo cap.
func (d *Draft) Normalize() {
	if d.Metrics == nil {
		d.Metrics = make(map[Dimension]Reading, len(TrackedDimensions)+1)
	}
	for _, dim := range AllDimensions() {
		if _, ok := d.Metrics[dim]; !ok {
			d.Metrics[dim] = Reading{}
		}
	}
	if d.Tags.ArrivalIssues == nil {
		d.Tags.ArrivalIssues = []string{}
	}
	if d.Tags.WorkPerformed == nil {
		d.Tags.WorkPerformed = []string{}
	}
	if d.Tags.CarePlan == nil {
		d.Tags.CarePlan = []string{}
	}
	d.Images.Before = capImages(d.Images.Before)
	d.Images.After = capImages(d.Images.After)
}

// Clone returns a deep copy safe to hand to another goroutine.
func (d *Draft) Clone() *Draft {
	if d == nil {
		return nil
	}
	out := *d
	out.Metrics = make(map[Dimension]Reading, len(d.Metrics))
	for k, v := range d.Metrics {
		out.Metrics[k] = v
	}
	out.Tags = Tags{
		ArrivalIssues: slices.Clone(d.Tags.ArrivalIssues),
		WorkPerformed: slices.Clone(d.Tags.WorkPerformed),
		CarePlan:      slices.Clone(d.Tags.CarePlan),
	}
	out.Images = Images{
		Before: slices.Clone(d.Images.Before),
		After:  slices.Clone(d.Images.After),
	}
	return &out
}

// Reading returns the stored reading for dim, zero when never set.
func (d *Draft) Reading(dim Dimension) Reading {
	return d.Metrics[dim]
}

// SetImages replaces the photo set of one side. Anything past
// MaxImagesPerSide is dropped.
func (d *Draft) SetImages(side Side, uris []string) error {
	switch side {
	case SideBefore:
		d.Images.Before = capImages(slices.Clone(uris))
	case SideAfter:
		d.Images.After = capImages(slices.Clone(uris))
	default:
		return ErrUnknownSide
	}
	return nil
}

// ImagesFor returns the photo set of one side.
func (d *Draft) ImagesFor(side Side) []string {
	if side == SideAfter {
		return d.Images.After
	}
	return d.Images.Before
}

func capImages(uris []string) []string {
	if uris == nil {
		return []string{}
	}
	if len(uris) > MaxImagesPerSide {
		return uris[:MaxImagesPerSide]
	}
	return uris
}
