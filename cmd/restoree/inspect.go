package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"restoree/internal/domain/certificate"
	"restoree/internal/infra/draftstore"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const barCells = 20

func newInspectCommand() *cobra.Command {
	var draftPath string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the derived metrics of a saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := draftstore.NewSingleFileStore(draftPath).Load(context.Background(), "")
			if err != nil {
				return fmt.Errorf("load %s: %w", draftPath, err)
			}
			writeInspect(cmd.OutOrStdout(), d)
			return nil
		},
	}
	cmd.Flags().StringVar(&draftPath, "draft", "", "draft JSON file")
	_ = cmd.MarkFlagRequired("draft")
	return cmd
}

func writeInspect(w io.Writer, d *certificate.Draft) {
	s := certificate.Summarize(d)

	id := d.CertificateID
	if id == "" {
		id = certificate.Placeholder
	}
	fmt.Fprintln(w, styleTitle.Render(orDash(s.ArticleName)))
	fmt.Fprintf(w, "Certificate %s\n\n", id)

	cols := []int{13, 8, 8, 16, barCells + 2}
	cell := func(i int, text string) string {
		return lipgloss.NewStyle().Width(cols[i]).Render(text)
	}
	fmt.Fprintln(w, styleHeader.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		cell(0, "Metric"), cell(1, "Before"), cell(2, "After"), cell(3, "Delta"), cell(4, "Bar"))))
	for _, row := range s.Rows {
		fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
			cell(0, string(row.Dimension)), cell(1, row.Before), cell(2, row.After), cell(3, row.Delta), cell(4, renderBar(row.Bar))))
	}
	fmt.Fprintln(w)

	if s.ImprovementPercent != "" {
		fmt.Fprintf(w, "Improvement         %s\n", s.ImprovementPercent)
	}
	if s.TransformationScore != nil {
		fmt.Fprintf(w, "Transformation      %s / 10\n", certificate.FormatNumber(*s.TransformationScore))
	}
	if len(s.TopGains) > 0 {
		gains := make([]string, len(s.TopGains))
		for i, g := range s.TopGains {
			gains[i] = fmt.Sprintf("%s +%s%%", g.Dimension, certificate.FormatFixed(g.Percent, 0))
		}
		fmt.Fprintf(w, "Top gains           %s\n", strings.Join(gains, ", "))
	}
}

// renderBar draws a mini bar as barCells terminal cells.
func renderBar(bar certificate.MiniBar) string {
	cells := []rune(strings.Repeat("·", barCells))
	kinds := make([]certificate.BarSegmentKind, barCells)
	for _, seg := range bar.Segments {
		from := int(seg.Left / 100 * barCells)
		to := int((seg.Left + seg.Width) / 100 * barCells)
		for i := from; i < to && i < barCells; i++ {
			cells[i] = '█'
			kinds[i] = seg.Kind
		}
	}
	var b strings.Builder
	for i, r := range cells {
		text := string(r)
		switch kinds[i] {
		case certificate.SegmentImprove:
			text = styleImprove.Render(text)
		case certificate.SegmentRegress:
			text = styleRegress.Render(text)
		case certificate.SegmentBefore:
			text = styleBase.Render(text)
		}
		b.WriteString(text)
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return certificate.Placeholder
	}
	return s
}
