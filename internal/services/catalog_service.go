package services

import (
	"context"
	"strings"
	"time"

	"github.com/ironpulse/clubsite/internal/models"
)

// CatalogStore persists the public content of the site.
type CatalogStore interface {
	ListClubs(ctx context.Context, includeInactive bool) ([]*models.Club, error)
	GetClub(ctx context.Context, id string) (*models.Club, error)
	InsertClub(ctx context.Context, c *models.Club) error
	UpdateClub(ctx context.Context, c *models.Club) (bool, error)
	SetClubActive(ctx context.Context, id string, active bool) (bool, error)

	ListTrainers(ctx context.Context, includeInactive bool) ([]*models.Trainer, error)
	GetTrainer(ctx context.Context, id string) (*models.Trainer, error)
	InsertTrainer(ctx context.Context, t *models.Trainer) error
	UpdateTrainer(ctx context.Context, t *models.Trainer) (bool, error)
	SetTrainerActive(ctx context.Context, id string, active bool) (bool, error)

	ListDirections(ctx context.Context, includeInactive bool) ([]*models.Direction, error)
	GetDirection(ctx context.Context, id string) (*models.Direction, error)
	InsertDirection(ctx context.Context, d *models.Direction) error
	UpdateDirection(ctx context.Context, d *models.Direction) (bool, error)
	SetDirectionActive(ctx context.Context, id string, active bool) (bool, error)

	AddAudit(ctx context.Context, e models.AuditEntry)
}

// CatalogService manages clubs, trainers and directions. Records are archived
// through their active flag and never hard-deleted; updates keep the flag as is.
type CatalogService struct {
	store CatalogStore
	now   func() time.Time
	idGen func() string
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: newID,
	}
}

// --- clubs ---

func (s *CatalogService) ListClubs(ctx context.Context, includeInactive bool) ([]*models.Club, error) {
	clubs, err := s.store.ListClubs(ctx, includeInactive)
	return clubs, persistErr("list clubs", err)
}

func (s *CatalogService) GetClub(ctx context.Context, id string) (*models.Club, error) {
	c, err := s.store.GetClub(ctx, id)
	if err != nil {
		return nil, persistErr("get club", err)
	}
	if c == nil {
		return nil, NewNotFoundError("club not found")
	}
	return c, nil
}

func (s *CatalogService) CreateClub(ctx context.Context, actor string, in *models.Club) (*models.Club, error) {
	if in == nil {
		return nil, NewInvalidError("club required")
	}
	c := *in
	normalizeClub(&c)
	if err := validateStruct(&c); err != nil {
		return nil, err
	}
	c.ID = s.idGen()
	c.Active = true
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	if err := s.store.InsertClub(ctx, &c); err != nil {
		return nil, persistErr("insert club", err)
	}
	s.audit(ctx, actor, "club_create", c.ID, c.Name)
	return &c, nil
}

func (s *CatalogService) UpdateClub(ctx context.Context, actor, id string, in *models.Club) (*models.Club, error) {
	if in == nil {
		return nil, NewInvalidError("club required")
	}
	existing, err := s.GetClub(ctx, id)
	if err != nil {
		return nil, err
	}
	c := *in
	normalizeClub(&c)
	if err := validateStruct(&c); err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.Active = existing.Active
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	ok, err := s.store.UpdateClub(ctx, &c)
	if err != nil {
		return nil, persistErr("update club", err)
	}
	if !ok {
		return nil, NewNotFoundError("club not found")
	}
	s.audit(ctx, actor, "club_update", c.ID, c.Name)
	return &c, nil
}

// SetClubActive archives (false) or restores (true) a club.
func (s *CatalogService) SetClubActive(ctx context.Context, actor, id string, active bool) error {
	ok, err := s.store.SetClubActive(ctx, id, active)
	if err != nil {
		return persistErr("set club active", err)
	}
	if !ok {
		return NewNotFoundError("club not found")
	}
	s.audit(ctx, actor, activeAction("club", active), id, "")
	return nil
}

func normalizeClub(c *models.Club) {
	c.Name = strings.TrimSpace(c.Name)
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	c.Address = strings.TrimSpace(c.Address)
	c.Phone = strings.TrimSpace(c.Phone)
	c.PhotoURL = strings.TrimSpace(c.PhotoURL)
}

// --- trainers ---

func (s *CatalogService) ListTrainers(ctx context.Context, includeInactive bool) ([]*models.Trainer, error) {
	trainers, err := s.store.ListTrainers(ctx, includeInactive)
	return trainers, persistErr("list trainers", err)
}

func (s *CatalogService) GetTrainer(ctx context.Context, id string) (*models.Trainer, error) {
	t, err := s.store.GetTrainer(ctx, id)
	if err != nil {
		return nil, persistErr("get trainer", err)
	}
	if t == nil {
		return nil, NewNotFoundError("trainer not found")
	}
	return t, nil
}

func (s *CatalogService) CreateTrainer(ctx context.Context, actor string, in *models.Trainer) (*models.Trainer, error) {
	if in == nil {
		return nil, NewInvalidError("trainer required")
	}
	t := *in
	if err := s.prepareTrainer(ctx, &t); err != nil {
		return nil, err
	}
	t.ID = s.idGen()
	t.Active = true
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	if err := s.store.InsertTrainer(ctx, &t); err != nil {
		return nil, persistErr("insert trainer", err)
	}
	s.audit(ctx, actor, "trainer_create", t.ID, t.Name)
	return &t, nil
}

func (s *CatalogService) UpdateTrainer(ctx context.Context, actor, id string, in *models.Trainer) (*models.Trainer, error) {
	if in == nil {
		return nil, NewInvalidError("trainer required")
	}
	existing, err := s.GetTrainer(ctx, id)
	if err != nil {
		return nil, err
	}
	t := *in
	if err := s.prepareTrainer(ctx, &t); err != nil {
		return nil, err
	}
	t.ID = existing.ID
	t.Active = existing.Active
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.now()
	ok, err := s.store.UpdateTrainer(ctx, &t)
	if err != nil {
		return nil, persistErr("update trainer", err)
	}
	if !ok {
		return nil, NewNotFoundError("trainer not found")
	}
	s.audit(ctx, actor, "trainer_update", t.ID, t.Name)
	return &t, nil
}

// SetTrainerActive archives (false) or restores (true) a trainer.
func (s *CatalogService) SetTrainerActive(ctx context.Context, actor, id string, active bool) error {
	ok, err := s.store.SetTrainerActive(ctx, id, active)
	if err != nil {
		return persistErr("set trainer active", err)
	}
	if !ok {
		return NewNotFoundError("trainer not found")
	}
	s.audit(ctx, actor, activeAction("trainer", active), id, "")
	return nil
}

// prepareTrainer normalizes and validates t, including that every referenced
// club and direction exists.
func (s *CatalogService) prepareTrainer(ctx context.Context, t *models.Trainer) error {
	t.Name = strings.TrimSpace(t.Name)
	t.Position = strings.TrimSpace(t.Position)
	t.PhotoURL = strings.TrimSpace(t.PhotoURL)
	t.ClubIDs = cleanIDs(t.ClubIDs)
	t.DirectionIDs = cleanIDs(t.DirectionIDs)
	if err := validateStruct(t); err != nil {
		return err
	}
	for _, id := range t.ClubIDs {
		c, err := s.store.GetClub(ctx, id)
		if err != nil {
			return persistErr("get club", err)
		}
		if c == nil {
			return NewNotFoundError("club " + id + " not found")
		}
	}
	for _, id := range t.DirectionIDs {
		d, err := s.store.GetDirection(ctx, id)
		if err != nil {
			return persistErr("get direction", err)
		}
		if d == nil {
			return NewNotFoundError("direction " + id + " not found")
		}
	}
	return nil
}

// --- directions ---

func (s *CatalogService) ListDirections(ctx context.Context, includeInactive bool) ([]*models.Direction, error) {
	dirs, err := s.store.ListDirections(ctx, includeInactive)
	return dirs, persistErr("list directions", err)
}

func (s *CatalogService) GetDirection(ctx context.Context, id string) (*models.Direction, error) {
	d, err := s.store.GetDirection(ctx, id)
	if err != nil {
		return nil, persistErr("get direction", err)
	}
	if d == nil {
		return nil, NewNotFoundError("direction not found")
	}
	return d, nil
}

func (s *CatalogService) CreateDirection(ctx context.Context, actor string, in *models.Direction) (*models.Direction, error) {
	if in == nil {
		return nil, NewInvalidError("direction required")
	}
	d := *in
	normalizeDirection(&d)
	if err := validateStruct(&d); err != nil {
		return nil, err
	}
	d.ID = s.idGen()
	d.Active = true
	d.CreatedAt = s.now()
	d.UpdatedAt = d.CreatedAt
	if err := s.store.InsertDirection(ctx, &d); err != nil {
		return nil, persistErr("insert direction", err)
	}
	s.audit(ctx, actor, "direction_create", d.ID, d.Name)
	return &d, nil
}

func (s *CatalogService) UpdateDirection(ctx context.Context, actor, id string, in *models.Direction) (*models.Direction, error) {
	if in == nil {
		return nil, NewInvalidError("direction required")
	}
	existing, err := s.GetDirection(ctx, id)
	if err != nil {
		return nil, err
	}
	d := *in
	normalizeDirection(&d)
	if err := validateStruct(&d); err != nil {
		return nil, err
	}
	d.ID = existing.ID
	d.Active = existing.Active
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = s.now()
	ok, err := s.store.UpdateDirection(ctx, &d)
	if err != nil {
		return nil, persistErr("update direction", err)
	}
	if !ok {
		return nil, NewNotFoundError("direction not found")
	}
	s.audit(ctx, actor, "direction_update", d.ID, d.Name)
	return &d, nil
}

// SetDirectionActive archives (false) or restores (true) a direction.
func (s *CatalogService) SetDirectionActive(ctx context.Context, actor, id string, active bool) error {
	ok, err := s.store.SetDirectionActive(ctx, id, active)
	if err != nil {
		return persistErr("set direction active", err)
	}
	if !ok {
		return NewNotFoundError("direction not found")
	}
	s.audit(ctx, actor, activeAction("direction", active), id, "")
	return nil
}

func normalizeDirection(d *models.Direction) {
	d.Name = strings.TrimSpace(d.Name)
	d.Slug = strings.ToLower(strings.TrimSpace(d.Slug))
	d.IconURL = strings.TrimSpace(d.IconURL)
}

func (s *CatalogService) audit(ctx context.Context, actor, action, target, note string) {
	s.store.AddAudit(ctx, models.AuditEntry{Time: s.now(), Actor: actor, Action: action, Target: target, Note: note})
}

func activeAction(kind string, active bool) string {
	if active {
		return kind + "_restore"
	}
	return kind + "_archive"
}
