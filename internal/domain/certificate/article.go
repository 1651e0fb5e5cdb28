package certificate

import (
	"strings"
	"time"
)

// ArticleCustom is the select value that switches to the free-text name.
const ArticleCustom = "__CUSTOM__"

// ArticleChoices are the preset article names.
var ArticleChoices = []string{"Bag", "Shoes", "Wallet"}

// ResolvedArticleName is NameCustom when the custom option is selected and
// NameSelect otherwise.
func (d *Draft) ResolvedArticleName() string {
	return d.Article.ResolvedName()
}

// ResolvedName applies the custom-name rule to a single article.
func (a Article) ResolvedName() string {
	if a.NameSelect == ArticleCustom {
		return a.NameCustom
	}
	return a.NameSelect
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// FormatDate renders an ISO date as "02 Jan 2006", or the placeholder when
// the value is empty or unparsable.
func FormatDate(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return Placeholder
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("02 Jan 2006")
		}
	}
	return Placeholder
}
