package certificate

import (
	"errors"
	"testing"
	"time"
)

func TestResolvedArticleName(t *testing.T) {
	tests := []struct {
		name    string
		article Article
		want    string
	}{
		{"custom", Article{NameSelect: ArticleCustom, NameCustom: "Vintage Trunk"}, "Vintage Trunk"},
		{"custom empty", Article{NameSelect: ArticleCustom}, ""},
		{"preset ignores custom text", Article{NameSelect: "Shoes", NameCustom: "Vintage Trunk"}, "Shoes"},
		{"nothing selected", Article{NameCustom: "Vintage Trunk"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDraft()
			d.Article = tt.article
			if got := d.ResolvedArticleName(); got != tt.want {
				t.Fatalf("ResolvedArticleName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetImagesReplacesSide(t *testing.T) {
	d := NewDraft()
	four := []string{"data:image/png;base64,a", "data:image/png;base64,b", "data:image/png;base64,c", "data:image/png;base64,d"}
	if err := d.SetImages(SideBefore, four); err != nil {
		t.Fatalf("SetImages: %v", err)
	}
	if err := d.SetImages(SideBefore, []string{"data:image/png;base64,e", "data:image/png;base64,f"}); err != nil {
		t.Fatalf("SetImages: %v", err)
	}
	if got := len(d.Images.Before); got != 2 {
		t.Fatalf("before images = %d, want 2", got)
	}
	if d.Images.Before[0] != "data:image/png;base64,e" {
		t.Fatalf("unexpected first image %q", d.Images.Before[0])
	}

	five := append(four, "data:image/png;base64,z")
	_ = d.SetImages(SideAfter, five)
	if got := len(d.Images.After); got != MaxImagesPerSide {
		t.Fatalf("after images = %d, want %d", got, MaxImagesPerSide)
	}
	if err := d.SetImages(Side("top"), four); !errors.Is(err, ErrUnknownSide) {
		t.Fatalf("expected ErrUnknownSide, got %v", err)
	}
}

func TestToggleTag(t *testing.T) {
	d := NewDraft()
	selected, err := d.ToggleTag(TagGroupArrival, "Edge wear")
	if err != nil || !selected {
		t.Fatalf("first toggle = %v, %v", selected, err)
	}
	selected, err = d.ToggleTag(TagGroupArrival, "Edge wear")
	if err != nil || selected {
		t.Fatalf("second toggle = %v, %v", selected, err)
	}
	if len(d.Tags.ArrivalIssues) != 0 {
		t.Fatalf("arrival tags = %v, want empty", d.Tags.ArrivalIssues)
	}
	if _, err := d.ToggleTag(TagGroup("other"), "x"); !errors.Is(err, ErrUnknownTagGroup) {
		t.Fatalf("expected ErrUnknownTagGroup, got %v", err)
	}
}

func TestAddTagKeepsDuplicates(t *testing.T) {
	d := NewDraft()
	_, _ = d.ToggleTag(TagGroupWork, "Deep clean")
	added, err := d.AddTag(TagGroupWork, "  Deep clean ")
	if err != nil || !added {
		t.Fatalf("AddTag = %v, %v", added, err)
	}
	added, _ = d.AddTag(TagGroupWork, "   ")
	if added {
		t.Fatalf("blank tag was added")
	}
	want := []string{"Deep clean", "Deep clean"}
	if len(d.Tags.WorkPerformed) != len(want) {
		t.Fatalf("work tags = %v, want %v", d.Tags.WorkPerformed, want)
	}

	// Toggling a duplicated tag removes every copy.
	_, _ = d.ToggleTag(TagGroupWork, "Deep clean")
	if len(d.Tags.WorkPerformed) != 0 {
		t.Fatalf("work tags = %v, want empty", d.Tags.WorkPerformed)
	}
}

func TestVocabularySizes(t *testing.T) {
	sizes := map[TagGroup]int{TagGroupArrival: 11, TagGroupWork: 9, TagGroupCare: 7}
	for group, want := range sizes {
		terms, err := Vocabulary(group)
		if err != nil {
			t.Fatalf("Vocabulary(%s): %v", group, err)
		}
		if len(terms) != want {
			t.Fatalf("Vocabulary(%s) has %d terms, want %d", group, len(terms), want)
		}
	}
}

func TestTagOptionsMarkSelectionAndAppendCustom(t *testing.T) {
	d := NewDraft()
	_, _ = d.ToggleTag(TagGroupCare, "Avoid sunlight")
	_, _ = d.AddTag(TagGroupCare, "Rotate weekly")
	_, _ = d.AddTag(TagGroupCare, "Rotate weekly")

	opts, err := d.TagOptions(TagGroupCare)
	if err != nil {
		t.Fatalf("TagOptions: %v", err)
	}
	if len(opts) != len(CareVocabulary)+1 {
		t.Fatalf("got %d options, want %d", len(opts), len(CareVocabulary)+1)
	}
	for i, term := range CareVocabulary {
		if opts[i].Term != term || opts[i].Custom {
			t.Fatalf("option %d = %+v, want base term %q", i, opts[i], term)
		}
		if opts[i].Checked != (term == "Avoid sunlight") {
			t.Fatalf("option %q checked = %v", term, opts[i].Checked)
		}
	}
	last := opts[len(opts)-1]
	if last != (TagOption{Term: "Rotate weekly", Checked: true, Custom: true}) {
		t.Fatalf("custom option = %+v", last)
	}

	if _, err := d.TagOptions(TagGroup("other")); !errors.Is(err, ErrUnknownTagGroup) {
		t.Fatalf("expected ErrUnknownTagGroup, got %v", err)
	}
}

func TestCertificateIDShapeAndStability(t *testing.T) {
	picks := []int{1, 10, 35, 0}
	i := 0
	gen := &IDGenerator{
		Now: func() time.Time { return time.UnixMilli(1700000004321) },
		IntN: func(int) int {
			v := picks[i%len(picks)]
			i++
			return v
		},
	}

	d := NewDraft()
	id, assigned := d.EnsureCertificateID(gen)
	if !assigned || id != "RST-1AZ0-4321" {
		t.Fatalf("EnsureCertificateID = %q, %v", id, assigned)
	}
	again, assigned := d.EnsureCertificateID(gen)
	if assigned || again != id {
		t.Fatalf("second EnsureCertificateID = %q, %v; want stable %q", again, assigned, id)
	}
	if !ValidCertificateID(id) {
		t.Fatalf("ValidCertificateID(%q) = false", id)
	}

	fresh := d.RegenerateCertificateID(NewIDGenerator())
	if !ValidCertificateID(fresh) {
		t.Fatalf("regenerated id %q has wrong shape", fresh)
	}
}

func TestFormatDate(t *testing.T) {
	tests := map[string]string{
		"":                     Placeholder,
		"not a date":           Placeholder,
		"2024-03-05":           "05 Mar 2024",
		"2024-12-25T10:00:00Z": "25 Dec 2024",
		"2024-02-30":           Placeholder,
	}
	for in, want := range tests {
		if got := FormatDate(in); got != want {
			t.Fatalf("FormatDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeFillsDecodedDraft(t *testing.T) {
	d := &Draft{}
	d.Normalize()
	if len(d.Metrics) != len(AllDimensions()) {
		t.Fatalf("metrics = %d entries, want %d", len(d.Metrics), len(AllDimensions()))
	}
	if d.Tags.CarePlan == nil || d.Images.Before == nil {
		t.Fatalf("collections left nil: %+v", d)
	}

	clone := NewDraft()
	_, _ = clone.AddTag(TagGroupCare, "Store upright")
	copied := clone.Clone()
	copied.Tags.CarePlan[0] = "changed"
	if clone.Tags.CarePlan[0] != "Store upright" {
		t.Fatalf("Clone shares tag storage")
	}
}
