package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ironpulse/clubsite/internal/matching"
	"github.com/ironpulse/clubsite/internal/models"
)

const catalogOrder = ` ORDER BY sort_order ASC, name ASC, id ASC`

// activeFilter returns the WHERE clause for list queries.
func activeFilter(includeInactive bool) string {
	if includeInactive {
		return ""
	}
	return ` WHERE active = 1`
}

func (s *SQLiteStore) setActive(ctx context.Context, table, id string, active bool) (bool, error) {
	return affected(s.db.ExecContext(ctx,
		`UPDATE `+table+` SET active = ?, updated_at = ? WHERE id = ?`,
		boolToInt64(active), formatTime(time.Now()), id))
}

// --- clubs ---

const clubColumns = `id, name, slug, address, phone, schedule, photo_url, sort_order, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClub(sc rowScanner) (*models.Club, error) {
	var c models.Club
	var created, updated string
	if err := sc.Scan(&c.ID, &c.Name, &c.Slug, &c.Address, &c.Phone, &c.Schedule, &c.PhotoURL,
		&c.Order, &c.Active, &created, &updated); err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(created)
	c.UpdatedAt = parseTime(updated)
	return &c, nil
}

func (s *SQLiteStore) ListClubs(ctx context.Context, includeInactive bool) ([]*models.Club, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clubColumns+` FROM clubs`+activeFilter(includeInactive)+catalogOrder)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.log, "ListClubs")
	out := []*models.Club{}
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetClub(ctx context.Context, id string) (*models.Club, error) {
	c, err := scanClub(s.db.QueryRowContext(ctx, `SELECT `+clubColumns+` FROM clubs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *SQLiteStore) InsertClub(ctx context.Context, c *models.Club) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO clubs (`+clubColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Slug, c.Address, c.Phone, c.Schedule, c.PhotoURL, c.Order, boolToInt64(c.Active),
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	return err
}

func (s *SQLiteStore) UpdateClub(ctx context.Context, c *models.Club) (bool, error) {
	return affected(s.db.ExecContext(ctx, `UPDATE clubs SET name = ?, slug = ?, address = ?, phone = ?, schedule = ?,
  photo_url = ?, sort_order = ?, active = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Slug, c.Address, c.Phone, c.Schedule, c.PhotoURL, c.Order, boolToInt64(c.Active),
		formatTime(c.UpdatedAt), c.ID))
}

func (s *SQLiteStore) SetClubActive(ctx context.Context, id string, active bool) (bool, error) {
	return s.setActive(ctx, "clubs", id, active)
}

// --- trainers ---

const trainerColumns = `id, name, position, bio, photo_url, club_ids, direction_ids, sort_order, active, created_at, updated_at`

func scanTrainer(sc rowScanner) (*models.Trainer, error) {
	var t models.Trainer
	var clubs, dirs, created, updated string
	if err := sc.Scan(&t.ID, &t.Name, &t.Position, &t.Bio, &t.PhotoURL, &clubs, &dirs,
		&t.Order, &t.Active, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if t.ClubIDs, err = decodeIDs(clubs); err != nil {
		return nil, fmt.Errorf("trainer %s: decode club_ids: %w", t.ID, err)
	}
	if t.DirectionIDs, err = decodeIDs(dirs); err != nil {
		return nil, fmt.Errorf("trainer %s: decode direction_ids: %w", t.ID, err)
	}
	t.CreatedAt = parseTime(created)
	t.UpdatedAt = parseTime(updated)
	return &t, nil
}

func (s *SQLiteStore) ListTrainers(ctx context.Context, includeInactive bool) ([]*models.Trainer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+trainerColumns+` FROM trainers`+activeFilter(includeInactive)+catalogOrder)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.log, "ListTrainers")
	out := []*models.Trainer{}
	for rows.Next() {
		t, err := scanTrainer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetTrainer(ctx context.Context, id string) (*models.Trainer, error) {
	t, err := scanTrainer(s.db.QueryRowContext(ctx, `SELECT `+trainerColumns+` FROM trainers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func trainerArgs(t *models.Trainer) (clubs, dirs string, err error) {
	if clubs, err = matching.EncodeIDs(t.ClubIDs); err != nil {
		return "", "", err
	}
	if dirs, err = matching.EncodeIDs(t.DirectionIDs); err != nil {
		return "", "", err
	}
	return clubs, dirs, nil
}

func (s *SQLiteStore) InsertTrainer(ctx context.Context, t *models.Trainer) error {
	clubs, dirs, err := trainerArgs(t)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO trainers (`+trainerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Position, t.Bio, t.PhotoURL, clubs, dirs, t.Order, boolToInt64(t.Active),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	return err
}

func (s *SQLiteStore) UpdateTrainer(ctx context.Context, t *models.Trainer) (bool, error) {
	clubs, dirs, err := trainerArgs(t)
	if err != nil {
		return false, err
	}
	return affected(s.db.ExecContext(ctx, `UPDATE trainers SET name = ?, position = ?, bio = ?, photo_url = ?,
  club_ids = ?, direction_ids = ?, sort_order = ?, active = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.Position, t.Bio, t.PhotoURL, clubs, dirs, t.Order, boolToInt64(t.Active),
		formatTime(t.UpdatedAt), t.ID))
}

func (s *SQLiteStore) SetTrainerActive(ctx context.Context, id string, active bool) (bool, error) {
	return s.setActive(ctx, "trainers", id, active)
}

// --- directions ---

const directionColumns = `id, name, slug, description, icon_url, sort_order, active, created_at, updated_at`

func scanDirection(sc rowScanner) (*models.Direction, error) {
	var d models.Direction
	var created, updated string
	if err := sc.Scan(&d.ID, &d.Name, &d.Slug, &d.Description, &d.IconURL, &d.Order, &d.Active, &created, &updated); err != nil {
		return nil, err
	}
	d.CreatedAt = parseTime(created)
	d.UpdatedAt = parseTime(updated)
	return &d, nil
}

func (s *SQLiteStore) ListDirections(ctx context.Context, includeInactive bool) ([]*models.Direction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+directionColumns+` FROM directions`+activeFilter(includeInactive)+catalogOrder)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, s.log, "ListDirections")
	out := []*models.Direction{}
	for rows.Next() {
		d, err := scanDirection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetDirection(ctx context.Context, id string) (*models.Direction, error) {
	d, err := scanDirection(s.db.QueryRowContext(ctx, `SELECT `+directionColumns+` FROM directions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (s *SQLiteStore) InsertDirection(ctx context.Context, d *models.Direction) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO directions (`+directionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Slug, d.Description, d.IconURL, d.Order, boolToInt64(d.Active),
		formatTime(d.CreatedAt), formatTime(d.UpdatedAt))
	return err
}

func (s *SQLiteStore) UpdateDirection(ctx context.Context, d *models.Direction) (bool, error) {
	return affected(s.db.ExecContext(ctx, `UPDATE directions SET name = ?, slug = ?, description = ?, icon_url = ?,
  sort_order = ?, active = ?, updated_at = ? WHERE id = ?`,
		d.Name, d.Slug, d.Description, d.IconURL, d.Order, boolToInt64(d.Active), formatTime(d.UpdatedAt), d.ID))
}

func (s *SQLiteStore) SetDirectionActive(ctx context.Context, id string, active bool) (bool, error) {
	return s.setActive(ctx, "directions", id, active)
}
