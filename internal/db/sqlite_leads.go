package db

import (
	"context"

	"github.com/ironpulse/clubsite/internal/models"
)

func (s *SQLiteStore) InsertLead(ctx context.Context, l *models.Lead) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO leads (id, name, phone, club_id, comment, source, session_id, forwarded, created_at)
  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Phone, l.ClubID, l.Comment, l.Source, l.SessionID, boolToInt64(l.Forwarded), formatTime(l.CreatedAt))
	return err
}

func (s *SQLiteStore) MarkLeadForwarded(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE leads SET forwarded = 1 WHERE id = ?`, id)
	return err
}

// ListLeads returns the newest leads first; limit <= 0 means all.
func (s *SQLiteStore) ListLeads(ctx context.Context, limit int) ([]*models.Lead, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, phone, club_id, comment, source, session_id, forwarded, created_at
  FROM leads ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.log, "ListLeads")
	out := []*models.Lead{}
	for rows.Next() {
		var l models.Lead
		var created string
		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.ClubID, &l.Comment, &l.Source, &l.SessionID, &l.Forwarded, &created); err != nil {
			return nil, err
		}
		l.CreatedAt = parseTime(created)
		out = append(out, &l)
	}
	return out, rows.Err()
}
