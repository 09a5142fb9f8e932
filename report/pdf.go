package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"
)

const (
	pdfLineHeight = 6.0
	pdfBarHeight  = 4.0
)

// WritePDF renders doc as an A4 portrait PDF.
func WritePDF(w io.Writer, doc *Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("vantage", true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	bodyW := pageW - left - right

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(17, 34, 64)
	pdf.CellFormat(bodyW, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(100, 110, 140)
		pdf.CellFormat(bodyW, pdfLineHeight, tr(doc.Subtitle), "", 1, "L", false, 0, "")
	}

	for _, sec := range doc.Sections {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(17, 34, 64)
		pdf.CellFormat(bodyW, 8, tr(sec.Heading), "B", 1, "L", false, 0, "")
		pdf.Ln(1)

		pdf.SetTextColor(40, 40, 40)
		for _, r := range sec.Rows {
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(bodyW*0.6, pdfLineHeight, tr(r.Label), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(bodyW*0.4, pdfLineHeight, tr(r.Value), "", 1, "R", false, 0, "")
		}
		pdf.SetFont("Helvetica", "", 10)
		for _, p := range sec.Paragraphs {
			pdf.MultiCell(bodyW, 5, tr(p), "", "L", false)
			pdf.Ln(1)
		}
		for _, b := range sec.Bullets {
			pdf.MultiCell(bodyW, 5, tr("• "+b), "", "L", false)
		}
		if len(sec.Histogram) > 0 {
			drawHistogram(pdf, tr, sec.Histogram, bodyW)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// drawHistogram draws one horizontal bar per bin.
func drawHistogram(pdf *fpdf.Fpdf, tr func(string) string, bins []Bin, bodyW float64) {
	peak := 0
	for _, b := range bins {
		peak = max(peak, b.Count)
	}
	labelW, countW := 40.0, 15.0
	barMax := bodyW - labelW - countW
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetFillColor(75, 192, 192)
	for _, b := range bins {
		x, y := pdf.GetXY()
		pdf.CellFormat(labelW, pdfBarHeight+1, tr(b.Label), "", 0, "R", false, 0, "")
		if peak > 0 && b.Count > 0 {
			pdf.Rect(x+labelW+2, y+0.5, barMax*float64(b.Count)/float64(peak), pdfBarHeight, "F")
		}
		pdf.SetXY(x+labelW+barMax, y)
		pdf.CellFormat(countW, pdfBarHeight+1, fmt.Sprintf("%d", b.Count), "", 1, "R", false, 0, "")
	}
}

// SavePDF writes doc to dir/name, creating dir if needed, and returns the
// full path.
func SavePDF(dir, name string, doc *Document) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := writeFile(path, func(w io.Writer) error { return WritePDF(w, doc) }); err != nil {
		return "", err
	}
	logrus.Infof("report written to %s", path)
	return path, nil
}

// writeFile creates path and fills it with write. A failed write leaves
// no file behind.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	err = write(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	if err != nil {
		if rerr := os.Remove(path); rerr != nil {
			logrus.Warnf("removing partial %s: %v", path, rerr)
		}
		return err
	}
	return nil
}
