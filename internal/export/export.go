// Package export writes a generated narrative for download.
package export

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Supported download formats.
const (
	FormatText = "txt"
	FormatPDF  = "pdf"
)

// ErrUnknownFormat is returned by Write for anything but txt or pdf.
var ErrUnknownFormat = errors.New("unknown export format")

// Document is a narrative ready for download.
type Document struct {
	ProfileID   string
	ProfileName string
	Industry    string
	Text        string
}

// FileName returns "informe_narrativo_<profile id>.<ext>".
func (d Document) FileName(ext string) string {
	return "informe_narrativo_" + d.ProfileID + "." + strings.TrimPrefix(ext, ".")
}

// ContentType returns the MIME type for the format.
func ContentType(format string) string {
	if format == FormatPDF {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

// Write renders d in the given format.
func (d Document) Write(w io.Writer, format string) error {
	switch format {
	case FormatText, "":
		return d.WriteText(w)
	case FormatPDF:
		return d.WritePDF(w)
	default:
		return ErrUnknownFormat
	}
}

// WriteText writes exactly the narrative text, nothing else.
func (d Document) WriteText(w io.Writer) error {
	_, err := io.WriteString(w, d.Text)
	return err
}

// WritePDF lays the narrative out on A4 pages with a title line naming the
// audience. Paragraph breaks in the text are kept.
func (d Document) WritePDF(w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252; translate so Spanish accents survive
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Informe narrativo"), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	title := "Informe narrativo"
	if d.ProfileName != "" {
		title += ": " + d.ProfileName
	}
	pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
	if d.Industry != "" {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, tr(d.Industry), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	scanner := bufio.NewScanner(strings.NewReader(d.Text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(3)
			continue
		}
		pdf.MultiCell(0, 5, tr(s), "", "J", false)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return pdf.Output(w)
}
