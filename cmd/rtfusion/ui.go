package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mrsinham/rtfusion/internal/convert"
	dcm "github.com/mrsinham/rtfusion/internal/dicom"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func seriesTable(rows []dcm.SeriesRow) string {
	t := newTable("#", "Patient", "Study", "Series", "Date", "Modality", "Files")
	for _, r := range rows {
		files := strconv.Itoa(r.FileCount)
		if r.MultiFrame {
			files += " (multi-frame)"
		}
		t.Row(strconv.Itoa(r.Index), r.PatientName, r.StudyDescription, r.SeriesDescription, r.StudyDate, r.Modality, files)
	}
	return t.String()
}

func reportTable(report *convert.Report) string {
	t := newTable("ROI", "Contours", "Curves", "Unmapped", "Discarded", "Collapsed", "")
	for _, r := range report.ROIs {
		note := ""
		if r.Deleted {
			note = "deleted"
		}
		t.Row(r.Name,
			strconv.Itoa(r.Contours),
			strconv.Itoa(r.Curves),
			strconv.Itoa(r.Unmapped),
			strconv.Itoa(r.Discarded),
			strconv.Itoa(r.Collapsed),
			note)
	}
	return t.String()
}

func selectionView(s *dcm.SelectedSeries, stack *dcm.ImageStack) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s (%s)", dcm.FormatPersonName(s.PatientName), s.Modality)))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(s.SeriesUID))
	b.WriteString("\n")

	t := newTable("Property", "Value")
	t.Row("Files", strconv.Itoa(len(s.Files)))
	t.Row("Flip", s.Orientation.Flip.String())
	if s.Windowing.Unknown() {
		t.Row("Window", "unknown")
	} else {
		t.Row("Window", fmt.Sprintf("center %.1f, width %.1f", s.Windowing.Center, s.Windowing.Width))
	}
	t.Row("Pixel range", fmt.Sprintf("%d..%d", s.Windowing.MinPixel, s.Windowing.MaxPixel))
	if stack != nil {
		t.Row("Size", fmt.Sprintf("%dx%dx%d", stack.Width, stack.Height, stack.Slices))
		t.Row("Spacing", fmt.Sprintf("%.3f x %.3f x %.3f mm", stack.Spacing[0], stack.Spacing[1], stack.Spacing[2]))
	}
	b.WriteString(t.String())
	return b.String()
}

// promptSeries asks the user to pick one of rows and returns its index.
func promptSeries(rows []dcm.SeriesRow) (int, error) {
	options := make([]huh.Option[int], len(rows))
	for i, r := range rows {
		label := fmt.Sprintf("%s | %s | %s | %s | %d files", r.PatientName, r.StudyDescription, r.SeriesDescription, r.StudyDate, r.FileCount)
		options[i] = huh.NewOption(label, r.Index)
	}

	choice := rows[0].Index
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Select the series to load").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return 0, fmt.Errorf("select series: %w", err)
	}
	return choice, nil
}
