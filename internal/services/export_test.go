package services

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironpulse/clubsite/internal/models"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportSubmissions(t *testing.T) {
	store := newStubStore()
	seedSubmissions(store)
	svc := NewExportService(store)
	svc.now = fixedClock()

	res, err := svc.Submissions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "quiz-submissions-20240510.csv", res.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", res.ContentType)

	rows := readCSV(t, res.Data)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"submission_id", "session_id", "created_at", "goal", "old", "recommendations"}, rows[0])
	assert.Equal(t, []string{"s3", "c", "2024-05-10T10:00:00Z", "strength", "x", "Boxing; Yoga"}, rows[3])
	assert.Equal(t, "", rows[4][5])
}

func TestExportLeads(t *testing.T) {
	store := newStubStore()
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	store.leads = []*models.Lead{
		{ID: "l1", Name: "=HYPERLINK(\"x\")", Phone: "+79001234567", Source: "quiz", Forwarded: true, CreatedAt: at},
		{ID: "l2", Name: "Olga", Phone: "89001234567", Comment: "-evening", CreatedAt: at},
	}
	svc := NewExportService(store)
	svc.now = fixedClock()

	res, err := svc.Leads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "leads-20240510.csv", res.Filename)
	rows := readCSV(t, res.Data)
	require.Len(t, rows, 3)
	assert.Equal(t, "lead_id", rows[0][0])
	// newest first
	assert.Equal(t, "l2", rows[1][0])
	assert.Equal(t, "'-evening", rows[1][8])
	assert.Equal(t, "'=HYPERLINK(\"x\")", rows[2][2])
	assert.Equal(t, "+79001234567", rows[2][3])
	assert.Equal(t, "true", rows[2][7])
}

func TestSanitizeCell(t *testing.T) {
	assert.Equal(t, "", sanitizeCell(""))
	assert.Equal(t, "plain", sanitizeCell("plain"))
	assert.Equal(t, "'@cmd", sanitizeCell("@cmd"))
	assert.Equal(t, "'+SUM(A1)", sanitizeCell("+SUM(A1)"))
	assert.Equal(t, "+7900", sanitizeCell("+7900"))
}
