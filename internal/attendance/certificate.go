package attendance

import (
	"bytes"
	"fmt"
	"time"

	"CampusEvents/internal/auth"

	"github.com/go-pdf/fpdf"
)

// RenderCertificate draws a one-page landscape OD certificate.
func RenderCertificate(student auth.UserSummary, ev EventInfo, present bool, approvedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("On-Duty Certificate", true)
	pdf.SetCreationDate(approvedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, 277, 190, "D")

	pdf.SetFont("Helvetica", "B", 30)
	pdf.Ln(20)
	pdf.CellFormat(0, 16, "On-Duty Certificate", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.Ln(8)
	pdf.CellFormat(0, 10, "This is to certify that", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, tr(student.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, tr(student.Email), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.Ln(6)
	line := fmt.Sprintf("was granted on-duty leave to take part in %s", ev.Name)
	if ev.ClubName != "" {
		line += fmt.Sprintf(", organised by %s", ev.ClubName)
	}
	pdf.MultiCell(0, 9, tr(line), "", "C", false)

	when := ev.StartDateTime.Format("02 Jan 2006, 15:04")
	if !ev.EndDateTime.IsZero() {
		when += " to " + ev.EndDateTime.Format("02 Jan 2006, 15:04")
	}
	pdf.CellFormat(0, 9, tr(when), "", 1, "C", false, 0, "")
	if ev.Venue != "" {
		pdf.CellFormat(0, 9, tr("Venue: "+ev.Venue), "", 1, "C", false, 0, "")
	}

	attendance := "Attendance: not recorded"
	if present {
		attendance = "Attendance: present"
	}
	pdf.SetFont("Helvetica", "I", 11)
	pdf.Ln(10)
	pdf.CellFormat(0, 7, attendance, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, "Approved on "+approvedAt.Format("02 Jan 2006"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
