// Package export renders the task list as a downloadable file.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"task-manager/internal/model"
)

var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	JSON Format = "json"
	CSV  Format = "csv"
	PDF  Format = "pdf"
)

// ParseFormat accepts json, csv or pdf in any case. Empty means json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return JSON, nil
	case JSON, CSV, PDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case PDF:
		return "application/pdf"
	default:
		return "application/json; charset=utf-8"
	}
}

func (f Format) Filename() string {
	return "tasks." + string(f)
}

var csvHeader = []string{"id", "title", "description", "completed", "createdAt"}

// Export renders tasks in the given format, keeping their order.
func Export(tasks []model.Task, f Format) ([]byte, error) {
	switch f {
	case JSON:
		if tasks == nil {
			tasks = []model.Task{}
		}
		return json.MarshalIndent(tasks, "", "  ")
	case CSV:
		var b bytes.Buffer
		w := csv.NewWriter(&b)
		_ = w.Write(csvHeader)
		for _, t := range tasks {
			_ = w.Write([]string{
				t.ID,
				t.Title,
				t.Description,
				strconv.FormatBool(t.Completed),
				formatTime(t.CreatedAt),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	case PDF:
		return renderPDF(tasks)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}

func renderPDF(tasks []model.Task) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Tasks")
	pdf.Ln(12)

	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("%d tasks, %d completed", len(tasks), done))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s %s", mark, t.Title)), "0", "L", false)
		pdf.SetFont("Arial", "", 9)
		if t.Description != "" {
			pdf.MultiCell(0, 5, tr(t.Description), "0", "L", false)
		}
		pdf.MultiCell(0, 5, "created "+formatTime(t.CreatedAt), "0", "L", false)
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(model.TimeLayout)
}
