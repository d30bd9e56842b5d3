package export

import (
	"bytes"
	"errors"
	"testing"
)

func TestFileName(t *testing.T) {
	d := Document{ProfileID: "gerente_produccion"}
	if got := d.FileName("txt"); got != "informe_narrativo_gerente_produccion.txt" {
		t.Fatalf("FileName = %q", got)
	}
	if got := d.FileName(".pdf"); got != "informe_narrativo_gerente_produccion.pdf" {
		t.Fatalf("FileName = %q", got)
	}
}

func TestWriteText_ExactNarrative(t *testing.T) {
	text := "Primer párrafo.\n\nSegundo párrafo."
	var buf bytes.Buffer
	if err := (Document{ProfileID: "inversor", Text: text}).WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if buf.String() != text {
		t.Fatalf("exported %q, want exactly %q", buf.String(), text)
	}
}

func TestWritePDF(t *testing.T) {
	d := Document{
		ProfileID:   "gerente_general",
		ProfileName: "Gerente General / Dueño",
		Industry:    "Laboratorio de Metrología",
		Text:        "La operación mostró un desempeño sólido.\n\nSe recomienda revisar los costos.",
	}
	var buf bytes.Buffer
	if err := d.Write(&buf, FormatPDF); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := (Document{}).Write(&buf, "docx"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestContentType(t *testing.T) {
	if ContentType(FormatPDF) != "application/pdf" {
		t.Fatal("pdf content type")
	}
	if ContentType(FormatText) != "text/plain; charset=utf-8" {
		t.Fatal("text content type")
	}
}
