package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/ironpulse/clubsite/internal/models"
)

// SubmissionsCSV renders one row per submission with a column per question,
// in question display order, followed by the recommended rule names.
func SubmissionsCSV(subs []*models.Submission, questions []*models.Question) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"submission_id", "session_id", "created_at"}
	for _, q := range questions {
		header = append(header, q.ID)
	}
	header = append(header, "recommendations")
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, sub := range subs {
		rec := []string{sub.ID, sub.SessionID, sub.CreatedAt.UTC().Format(time.RFC3339)}
		for _, q := range questions {
			rec = append(rec, sanitizeCell(sub.Answers[q.ID]))
		}
		names := make([]string, 0, len(sub.Recommendations))
		for _, m := range sub.Recommendations {
			names = append(names, m.Name)
		}
		rec = append(rec, sanitizeCell(strings.Join(names, "; ")))
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func LeadsCSV(leads []*models.Lead) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"lead_id", "created_at", "name", "phone", "club_id", "source", "session_id", "forwarded", "comment"})
	for _, l := range leads {
		rec := []string{
			l.ID,
			l.CreatedAt.UTC().Format(time.RFC3339),
			sanitizeCell(l.Name),
			sanitizeCell(l.Phone),
			l.ClubID,
			l.Source,
			l.SessionID,
			strconv.FormatBool(l.Forwarded),
			sanitizeCell(l.Comment),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// sanitizeCell neutralizes spreadsheet formula injection. A leading plus
// followed only by digits is a phone number and kept as is.
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '-', '@', '\t', '\r':
		return "'" + s
	case '+':
		if _, err := strconv.ParseUint(s[1:], 10, 64); err == nil {
			return s
		}
		return "'" + s
	}
	return s
}

func itoa(i int) string { return strconv.Itoa(i) }
