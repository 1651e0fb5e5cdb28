package render

import (
	"fmt"
	"html"
	"strings"

	"restoree/internal/domain/certificate"
)

// CertificateHTML renders the certificate card fragment.
func CertificateHTML(v View) string {
	var b strings.Builder
	b.Grow(8192)
	writeCertificate(&b, v)
	return b.String()
}

// CaptureDocument is a standalone page holding only the certificate, used by
// the rasterizer.
func CaptureDocument(v View) string {
	var b strings.Builder
	b.Grow(16384)
	writeHead(&b, v, false)
	b.WriteString(`<body>`)
	writeCertColumn(&b, v)
	b.WriteString(`</body></html>`)
	return b.String()
}

// PrintDocument is the full builder page: form panel, certificate and
// status panel. Its print stylesheet hides everything but the certificate.
func PrintDocument(v View, activity []string) string {
	var b strings.Builder
	b.Grow(24576)
	writeHead(&b, v, true)
	b.WriteString(`<body><div class="wrap`)
	if v.Draft.Display.Plain {
		b.WriteString(` plain`)
	}
	b.WriteString(`">`)
	writeForm(&b, v.Draft)
	writeCertColumn(&b, v)
	writeStatusPanel(&b, activity)
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func writeHead(b *strings.Builder, v View, fullPage bool) {
	b.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
	fmt.Fprintf(b, `<title>Restoration Certificate %s</title>`, esc(orPlaceholder(v.Draft.CertificateID)))
	b.WriteString(`<style>`)
	b.WriteString(certificateCSS)
	if fullPage {
		b.WriteString(pageCSS)
		b.WriteString(printCSS)
	}
	b.WriteString(`</style></head>`)
}

func writeCertColumn(b *strings.Builder, v View) {
	b.WriteString(`<div class="cert-col`)
	if v.Draft.Display.PrintFit {
		b.WriteString(` scale-95`)
	}
	b.WriteString(`">`)
	writeCertificate(b, v)
	b.WriteString(`</div>`)
}

func writeCertificate(b *strings.Builder, v View) {
	d := v.Draft
	b.WriteString(`<div id="certificate" class="cert-shell`)
	if d.Display.Plain {
		b.WriteString(` plain`)
	}
	b.WriteString(`">`)

	b.WriteString(`<div class="logo-wrap">`)
	if d.Logo != "" {
		fmt.Fprintf(b, `<img src="%s" alt="Logo" class="cert-logo">`, esc(d.Logo))
	} else {
		b.WriteString(`<div class="logo-fallback">RESTOREE</div>`)
	}
	b.WriteString(`</div>`)

	b.WriteString(`<h2 class="cert-title">Restoration Certificate</h2>`)
	fmt.Fprintf(b, `<div class="gen-line"><span>ID: %s</span> | <span>Generated: %s</span></div>`,
		esc(orPlaceholder(d.CertificateID)), esc(v.GeneratedLabel()))

	writeInfoGrid(b, d, v.Summary.ArticleName)
	writePhotoGrid(b, d)
	writeMetricsTable(b, v.Summary)
	writeNotes(b, d)
	writeVerify(b, v)

	fmt.Fprintf(b, `<div class="disclaimer">%s</div>`, esc(d.Disclaimer))
	b.WriteString(`</div>`)
}

type infoField struct {
	label string
	value string
}

func writeInfoGrid(b *strings.Builder, d *certificate.Draft, articleName string) {
	fields := []infoField{
		{"Customer", orPlaceholder(d.Customer.Name)},
		{"Mobile", orPlaceholder(d.Customer.Mobile)},
		{"Email", orPlaceholder(d.Customer.Email)},
		{"Address", orPlaceholder(d.Customer.Address)},
		{"Article", orPlaceholder(articleName)},
		{"Brand", orPlaceholder(d.Article.Brand)},
		{"Model", orPlaceholder(d.Article.Model)},
		{"Serial", orPlaceholder(d.Article.Serial)},
		{"Service", orPlaceholder(d.Article.Service)},
		{"Technician", orPlaceholder(d.Article.Technician)},
		{"Picked Up", certificate.FormatDate(d.Dates.Picked)},
		{"Completed", certificate.FormatDate(d.Dates.Completed)},
	}
	b.WriteString(`<div class="info-grid">`)
	for _, f := range fields {
		fmt.Fprintf(b, `<div class="info-box"><div class="lbl">%s:</div><div class="val">%s</div></div>`, esc(f.label), esc(f.value))
	}
	b.WriteString(`</div>`)
}

// writePhotoGrid pairs before/after photos row by row. Rows run to the longer
// side, with at least one row so the grid never renders blank.
func writePhotoGrid(b *strings.Builder, d *certificate.Draft) {
	before, after := d.Images.Before, d.Images.After
	rows := max(len(before), len(after), 1)

	b.WriteString(`<div class="ba-block"><div class="ba-headers"><div class="ba-head">Before</div><div class="ba-head">After</div></div><div class="ba-grid">`)
	for i := 0; i < rows; i++ {
		writePhotoCell(b, before, i, "Before")
		writePhotoCell(b, after, i, "After")
	}
	b.WriteString(`</div></div>`)
}

func writePhotoCell(b *strings.Builder, uris []string, i int, alt string) {
	if i < len(uris) && uris[i] != "" {
		fmt.Fprintf(b, `<div class="ba-cell"><img src="%s" alt="%s"></div>`, esc(uris[i]), alt)
		return
	}
	b.WriteString(`<div class="ba-cell empty"><span>Image</span></div>`)
}

func writeMetricsTable(b *strings.Builder, s certificate.Summary) {
	b.WriteString(`<table class="metrics-table"><thead><tr><th class="metric">Metric</th><th>Before</th><th>After</th><th>Δ (Pct)</th><th>Bar</th></tr></thead><tbody>`)
	for _, row := range s.Rows {
		if row.Computed {
			b.WriteString(`<tr class="avoid-break overall"><td class="metric"><strong>Overall Progress</strong></td>`)
			fmt.Fprintf(b, `<td><strong>%s</strong></td><td><strong>%s</strong></td>`, esc(row.Before), esc(row.After))
		} else {
			fmt.Fprintf(b, `<tr><td class="metric">%s</td><td>%s</td><td>%s</td>`, esc(string(row.Dimension)), esc(row.Before), esc(row.After))
		}
		fmt.Fprintf(b, `<td>%s</td><td>`, esc(row.Delta))
		writeMiniBar(b, row.Bar)
		b.WriteString(`</td></tr>`)
	}
	b.WriteString(`</tbody>`)

	if highlights := summaryHighlights(s); highlights != "" {
		fmt.Fprintf(b, `<tfoot><tr><td colspan="5">%s</td></tr></tfoot>`, esc(highlights))
	}
	b.WriteString(`</table>`)
}

func writeMiniBar(b *strings.Builder, bar certificate.MiniBar) {
	b.WriteString(`<div class="mini-bar-wrap">`)
	for _, seg := range bar.Segments {
		fmt.Fprintf(b, `<div class="%s" style="left:%s%%;width:%s%%"></div>`,
			seg.Kind, certificate.FormatNumber(seg.Left), certificate.FormatNumber(seg.Width))
	}
	b.WriteString(`</div>`)
}

func summaryHighlights(s certificate.Summary) string {
	var parts []string
	if s.ImprovementPercent != "" {
		parts = append(parts, "Improvement "+s.ImprovementPercent)
	}
	if s.TransformationScore != nil {
		parts = append(parts, "Transformation Score "+certificate.FormatFixed(*s.TransformationScore, 0))
	}
	if len(s.TopGains) > 0 {
		gains := make([]string, 0, len(s.TopGains))
		for _, g := range s.TopGains {
			gains = append(gains, fmt.Sprintf("%s +%s%%", g.Dimension, certificate.FormatFixed(g.Percent, 0)))
		}
		parts = append(parts, "Top Gains: "+strings.Join(gains, ", "))
	}
	return strings.Join(parts, " | ")
}

func writeNotes(b *strings.Builder, d *certificate.Draft) {
	sections := []struct {
		title string
		items []string
	}{
		{"Arrival Condition", d.Tags.ArrivalIssues},
		{"Work Performed", d.Tags.WorkPerformed},
		{"Care Plan", d.Tags.CarePlan},
	}
	if len(d.Tags.ArrivalIssues)+len(d.Tags.WorkPerformed)+len(d.Tags.CarePlan) == 0 {
		return
	}
	b.WriteString(`<div class="notes-block">`)
	for _, section := range sections {
		if len(section.items) == 0 {
			continue
		}
		fmt.Fprintf(b, `<div class="avoid-break"><h5>%s</h5><ul>`, section.title)
		for _, item := range section.items {
			fmt.Fprintf(b, `<li>%s</li>`, esc(item))
		}
		b.WriteString(`</ul></div>`)
	}
	b.WriteString(`</div>`)
}

func writeVerify(b *strings.Builder, v View) {
	d := v.Draft
	url := strings.TrimSpace(d.VerifyURL)
	ref := strings.TrimSpace(d.RefCode)
	handle := strings.TrimSpace(d.Handle)
	if url == "" && ref == "" && handle == "" {
		return
	}
	b.WriteString(`<div class="verify-block avoid-break">`)
	if v.VerifyQR != "" {
		fmt.Fprintf(b, `<img class="verify-qr" src="%s" alt="Verify">`, esc(v.VerifyQR))
	}
	b.WriteString(`<div>`)
	if url != "" {
		fmt.Fprintf(b, `<div class="verify-url">Verify: <a href="%s">%s</a></div>`, esc(safeHref(url)), esc(url))
	}
	if ref != "" {
		fmt.Fprintf(b, `<div class="ref-code">Ref: %s</div>`, esc(ref))
	}
	if handle != "" {
		fmt.Fprintf(b, `<div class="handle">%s</div>`, esc(handle))
	}
	b.WriteString(`</div></div>`)
}

func writeForm(b *strings.Builder, d *certificate.Draft) {
	b.WriteString(`<div id="dataForm" class="form-col"><h1>Restoration Certificate Builder</h1>`)
	b.WriteString(`<div class="actions"><span>Print / Full Page PDF</span><span>Flat Image PDF</span><span>Export PNG</span></div>`)

	writeFieldset(b, "Customer", []infoField{
		{"Name", d.Customer.Name}, {"Mobile", d.Customer.Mobile},
		{"Email", d.Customer.Email}, {"Address", d.Customer.Address},
	})
	writeFieldset(b, "Article", []infoField{
		{"Article", d.ResolvedArticleName()}, {"Brand", d.Article.Brand}, {"Model", d.Article.Model},
		{"Serial", d.Article.Serial}, {"Service", d.Article.Service}, {"Technician", d.Article.Technician},
	})
	writeFieldset(b, "Dates", []infoField{
		{"Picked Up", d.Dates.Picked}, {"Completed", d.Dates.Completed}, {"Delivered", d.Dates.Delivered},
		{"Warranty", d.Dates.Warranty}, {"Next Care", d.Dates.NextCare},
	})
	writeFieldset(b, "Condition", []infoField{
		{"Before", d.Condition.Before}, {"After", d.Condition.After},
	})

	metrics := make([]infoField, 0, 2*len(certificate.TrackedDimensions))
	for _, dim := range certificate.TrackedDimensions {
		r := d.Reading(dim)
		metrics = append(metrics,
			infoField{string(dim) + " Before", r.Before},
			infoField{string(dim) + " After", r.After})
	}
	writeFieldset(b, "Metrics (1-10)", metrics)
	writeFieldset(b, "Details", []infoField{
		{"Improvement %", d.ImprovementPercent}, {"Handle", d.Handle},
		{"Verify URL", d.VerifyURL}, {"Ref Code", d.RefCode},
	})
	writeTagGrid(b, d, certificate.TagGroupArrival, "Arrival Issues")
	writeTagGrid(b, d, certificate.TagGroupWork, "Work Done")
	writeTagGrid(b, d, certificate.TagGroupCare, "Care Essentials")
	fmt.Fprintf(b, `<fieldset><legend>Disclaimer</legend><textarea rows="3" readonly>%s</textarea></fieldset>`, esc(d.Disclaimer))
	b.WriteString(`</div>`)
}

func writeFieldset(b *strings.Builder, legend string, fields []infoField) {
	fmt.Fprintf(b, `<fieldset><legend>%s</legend>`, esc(legend))
	for _, f := range fields {
		fmt.Fprintf(b, `<label>%s<input type="text" value="%s" readonly></label>`, esc(f.label), esc(f.value))
	}
	b.WriteString(`</fieldset>`)
}

func writeTagGrid(b *strings.Builder, d *certificate.Draft, group certificate.TagGroup, legend string) {
	opts, err := d.TagOptions(group)
	if err != nil {
		return
	}
	fmt.Fprintf(b, `<fieldset class="tag-grid" data-group="%s"><legend>%s</legend>`, esc(string(group)), esc(legend))
	for _, opt := range opts {
		class := "tag"
		if opt.Custom {
			class = "tag custom"
		}
		checked := ""
		if opt.Checked {
			checked = " checked"
		}
		fmt.Fprintf(b, `<label class="%s"><input type="checkbox" value="%s"%s disabled>%s</label>`,
			class, esc(opt.Term), checked, esc(opt.Term))
	}
	b.WriteString(`</fieldset>`)
}

func writeStatusPanel(b *strings.Builder, activity []string) {
	b.WriteString(`<div class="status-panel"><div>Status Log</div>`)
	for _, line := range activity {
		fmt.Fprintf(b, `<div>%s</div>`, esc(line))
	}
	b.WriteString(`</div>`)
}

func orPlaceholder(v string) string {
	if v == "" {
		return certificate.Placeholder
	}
	return v
}

func safeHref(url string) string {
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return url
	}
	return "#"
}

func esc(s string) string {
	return html.EscapeString(s)
}
