package attendance

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"
)

var exportHeader = []string{"name", "email", "present", "odStatus", "checkedInAt"}

// cell neutralises values a spreadsheet would evaluate as a formula.
func cell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// WriteCSV writes one line per attendance record.
func WriteCSV(w io.Writer, records []*Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range records {
		var name, email string
		if r.StudentRef != nil {
			name, email = r.StudentRef.Name, r.StudentRef.Email
		}
		checkedIn := ""
		if r.CheckedInAt != nil {
			checkedIn = r.CheckedInAt.UTC().Format(time.RFC3339)
		}
		if err := cw.Write([]string{cell(name), cell(email), strconv.FormatBool(r.Present), r.ODStatus, checkedIn}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
