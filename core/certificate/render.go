package certificate

import (
	"io"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9.-]+`)

// FileName returns the download name of the certificate PDF.
func FileName(iss Issued) string {
	clean := func(s string) string {
		return strings.Trim(unsafeFileChars.ReplaceAllString(s, "_"), "_")
	}
	return "Certificate_" + clean(iss.User.FullName) + "_" + clean(iss.Course.Title) + ".pdf"
}

// Render writes the certificate as an A4 landscape PDF.
func Render(w io.Writer, iss Issued) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // utf-8 -> cp1252 for the core fonts

	pdf.SetTitle("Certificate of Completion", true)
	pdf.SetSubject(iss.Course.Title, true)
	pdf.SetCreator(iss.Course.CreatedBy, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	pdf.SetLineWidth(0.8)
	pdf.Rect(7, 7, pageW-14, pageH-14, "D")
	pdf.SetLineWidth(0.3)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")

	centered := func(style string, size float64, h float64, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(0, h, tr(text), "", 1, "C", false, 0, "")
	}

	pdf.SetY(28)
	centered("B", 34, 16, "CERTIFICATE OF COMPLETION")
	pdf.Ln(8)
	centered("", 18, 10, "This is to certify that")
	pdf.Ln(4)

	pdf.SetTextColor(0xea, 0xb3, 0x08)
	centered("B", 30, 16, strings.ToUpper(iss.User.FullName))
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	centered("", 18, 10, "has successfully completed the course")
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.MultiCell(contentW, 12, tr(iss.Course.Title), "", "C", false)
	pdf.Ln(4)
	centered("", 14, 8, "Issued on: "+iss.Certificate.DateIssued.Format("2 January 2006"))

	// instructor signature
	sigY := pageH - 42
	pdf.SetLineWidth(0.4)
	pdf.Line(left+20, sigY, left+100, sigY)
	pdf.SetXY(left+20, sigY+2)
	pdf.SetFont("Helvetica", "", 14)
	instructor := "Instructor"
	if iss.Course.CreatedBy != "" {
		instructor = iss.Course.CreatedBy + ", Instructor"
	}
	pdf.CellFormat(80, 8, tr(instructor), "", 0, "C", false, 0, "")

	// verification code
	pdf.SetXY(pageW-right-120, pageH-30)
	pdf.SetFont("Courier", "", 9)
	pdf.CellFormat(120, 5, "Verification code: "+iss.Certificate.Code, "", 0, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return errors.Wrap(err, "rendering certificate")
	}
	return errors.Wrap(pdf.Output(w), "writing certificate")
}
