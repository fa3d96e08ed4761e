package report

import (
	"fmt"
	"io"
	"log"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/example/dts-backend/internal/model"
)

// Layout constants in points, kept from the reference report: A4,
// 45pt side margins, rule lines spanning x=45..550.
const (
	marginLeft  = 45.0
	marginTop   = 40.0
	marginRight = 45.0
	ruleRight   = 550.0
)

// Renderer produces the formatted service report. Sink, when set,
// receives a best-effort side copy of every rendered document.
type Renderer struct {
	Sink *DebugSink
}

// Render builds the single-flow report for a job and streams it to w.
// Construction errors are reported before any bytes are written; once
// Output starts, a failure is unrecoverable at the protocol level.
func (r *Renderer) Render(w io.Writer, job model.Job, sec model.Sections) error {
	pdf := newDoc()
	tr := cp1252Translator()

	// Header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 20, "DAS TECHNO SERVICES", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 14, "VFD INSPECTION & SERVICE REPORT", "", 1, "C", false, 0, "")
	pdf.Ln(8)
	rule(pdf)
	pdf.Ln(12)

	// Job details
	heading(pdf, "JOB DETAILS")
	details := []struct{ label, value string }{
		{"Job No", job.JobNo},
		{"Client Name", job.ClientName},
		{"Entry Date", job.EntryDate},
		{"Make", job.Make},
		{"Model No", job.ModelNo},
		{"Serial No", job.SerialNo},
		{"Reported Fault", job.Fault},
	}
	for _, d := range details {
		v := d.value
		if v == "" {
			v = "-"
		}
		pdf.MultiCell(0, 13, tr(fmt.Sprintf("%-15s : %s", d.label, v)), "", "L", false)
	}
	pdf.Ln(10)
	rule(pdf)
	pdf.Ln(12)

	// Technician checks, each line only when filled in
	heading(pdf, "TECHNICIAN CHECKS")
	checks := []struct{ label, value string }{
		{"Input Status", job.InputChoke},
		{"Output Status", job.OutputChoke},
		{"Choke", job.Choke},
		{"Control Board", job.ControlCard},
		{"Control Board Supply", job.ControlCardSupply},
		{"Fan", job.Fan},
		{"Power Card Condition", job.PowerCard},
		{"Checked By", job.CheckedBy},
		{"Repaired By", job.RepairedBy},
		{"Repairing Date", job.RepairDate},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		pdf.MultiCell(0, 13, tr(fmt.Sprintf("%-25s : %s", c.label, c.value)), "", "L", false)
	}
	if job.FinalRemarks != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "U", 10)
		pdf.CellFormat(0, 13, "Remarks:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 13, tr(job.FinalRemarks), "", "L", false)
	}
	pdf.Ln(10)
	rule(pdf)
	pdf.Ln(12)

	// Report sections
	inspection, service, testing, warranty := SectionTexts(job, sec)
	section(pdf, tr, "INSPECTION REPORT", inspection)
	section(pdf, tr, "SERVICE REPORT", service)
	section(pdf, tr, "TESTING REPORT", testing)
	section(pdf, tr, "WARRANTY REPORT", warranty)

	// Declaration
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 16, "DECLARATION", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10.5)
	pdf.MultiCell(0, 14, tr(declarationText), "", "J", false)
	pdf.Ln(24)

	// Footer
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 13, "For DAS TECHNO SERVICES", "", 1, "L", false, 0, "")
	pdf.Ln(16)
	pdf.CellFormat(0, 13, "Authorized Signatory", "", 1, "L", false, 0, "")
	pdf.Ln(18)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 12, "Contact: +91 8401534497 / 8320534497", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 12, "Email: dts@dastechnoservices.com", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 12, "Shivri, Maharashtra", "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build report for job %s: %w", job.JobNo, err)
	}

	out, done := r.output(w, job.JobNo)
	defer done()
	return pdf.Output(out)
}

// TestDocument renders the fixed two-page smoke-test PDF.
func (r *Renderer) TestDocument(w io.Writer) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 25)
	pdf.Text(100, 100, "TEST PDF")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(100, 200, "If you can see this, PDF generation is working!")
	pdf.AddPage()
	pdf.Text(100, 100, "Page 2 - It works!")
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// The core PDF fonts are Windows-1252; template glyphs outside it
// (the ✔ marks) degrade to the encoder's replacement character.
func cp1252Translator() func(string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	return func(s string) string {
		out, err := enc.String(s)
		if err != nil {
			return s
		}
		return out
	}
}

func newDoc() *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginTop)
	pdf.AddPage()
	return pdf
}

func rule(pdf *fpdf.Fpdf) {
	pdf.Line(marginLeft, pdf.GetY(), ruleRight, pdf.GetY())
}

func heading(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 14, title, "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 10)
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title, body string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 16, title, "", 1, "L", false, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "", 10.5)
	pdf.MultiCell(0, 14, tr(body), "", "L", false)
	pdf.Ln(14)
}

// output wires the debug sink copy in behind the response writer. A
// sink failure must never corrupt the client stream, so sink writes
// are best-effort.
func (r *Renderer) output(w io.Writer, jobNo string) (io.Writer, func()) {
	if r.Sink == nil {
		return w, func() {}
	}
	f, err := r.Sink.Create(jobNo)
	if err != nil {
		log.Printf("pdf debug sink: %v", err)
		return w, func() {}
	}
	be := &bestEffort{w: f}
	return io.MultiWriter(w, be), be.close
}

type bestEffort struct {
	w      io.WriteCloser
	failed bool
}

func (b *bestEffort) Write(p []byte) (int, error) {
	if !b.failed {
		if _, err := b.w.Write(p); err != nil {
			b.failed = true
			_ = b.w.Close()
			log.Printf("pdf debug sink write: %v", err)
		}
	}
	return len(p), nil
}

func (b *bestEffort) close() {
	if !b.failed {
		b.failed = true
		_ = b.w.Close()
	}
}
