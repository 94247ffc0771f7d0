package archive

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"Presenca/internal/config"
	"Presenca/internal/models"
)

const TimestampLayout = "2006-01-02 15:04:05"

// Renderer пишет архивный документ: заголовок с датой и по строке на отметку
type Renderer interface {
	Ext() string
	ContentType() string
	Render(w io.Writer, title string, records []models.AttendanceRecord) error
}

// NewRenderer выбирает формат по archive.format
func NewRenderer(format string) (Renderer, error) {
	switch format {
	case config.FormatPDF:
		return PDFRenderer{}, nil
	case config.FormatXLSX:
		return XLSXRenderer{}, nil
	default:
		return nil, fmt.Errorf("archive: unknown format %q", format)
	}
}

// FormatLine: строка документа для одной отметки
func FormatLine(r models.AttendanceRecord) string {
	return fmt.Sprintf("Nome: %s | Matrícula: %s | Chamada: %d | Horário: %s",
		r.Name, r.Matricula, r.CallNumber, r.Timestamp.Format(TimestampLayout))
}

func Title(day string) string {
	return "Registros de Presença - " + day
}

type PDFRenderer struct{}

func (PDFRenderer) Ext() string         { return ".pdf" }
func (PDFRenderer) ContentType() string { return "application/pdf" }

func (PDFRenderer) Render(w io.Writer, title string, records []models.AttendanceRecord) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	// стандартные шрифты в cp1252: переводим UTF-8 (á, ç, í)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	for _, r := range records {
		pdf.CellFormat(0, 10, tr(FormatLine(r)), "", 1, "", false, 0, "")
	}
	return pdf.Output(w)
}

type XLSXRenderer struct{}

const xlsxSheet = "Presenças"

func (XLSXRenderer) Ext() string { return ".xlsx" }
func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXRenderer) Render(w io.Writer, title string, records []models.AttendanceRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}
	if err := f.SetCellValue(xlsxSheet, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(xlsxSheet, "A1", "D1"); err != nil {
		return err
	}
	if err := f.SetSheetRow(xlsxSheet, "A2", &[]any{"Nome", "Matrícula", "Chamada", "Horário"}); err != nil {
		return err
	}
	for i, r := range records {
		cell := "A" + strconv.Itoa(i+3)
		row := []any{r.Name, r.Matricula, r.CallNumber, r.Timestamp.Format(TimestampLayout)}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(xlsxSheet, "A", "A", 32)
	_ = f.SetColWidth(xlsxSheet, "D", "D", 20)

	_, err := f.WriteTo(w)
	return err
}
