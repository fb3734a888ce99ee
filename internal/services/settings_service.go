package services

import (
	"context"
	"strings"
	"time"

	"github.com/ironpulse/clubsite/internal/models"
	"github.com/ironpulse/clubsite/internal/sitecfg"
)

type SettingsStore interface {
	GetSettings(ctx context.Context) (*models.SiteSettings, error)
	SaveSettings(ctx context.Context, s *models.SiteSettings) error
	AddAudit(ctx context.Context, e models.AuditEntry)
}

// SettingsService keeps the stored settings and the in-memory holder in step.
type SettingsService struct {
	store  SettingsStore
	holder *sitecfg.Holder
	seed   models.SiteSettings
	now    func() time.Time
}

func NewSettingsService(store SettingsStore, holder *sitecfg.Holder, seed models.SiteSettings) *SettingsService {
	return &SettingsService{
		store:  store,
		holder: holder,
		seed:   seed,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Reload publishes the stored settings, or stores and publishes the seed when
// nothing has been saved yet.
func (s *SettingsService) Reload(ctx context.Context) error {
	cur, err := s.store.GetSettings(ctx)
	if err != nil {
		return persistErr("get settings", err)
	}
	if cur == nil {
		seed := s.seed
		seed.UpdatedAt = s.now()
		if err := s.store.SaveSettings(ctx, &seed); err != nil {
			return persistErr("save settings", err)
		}
		cur = &seed
	}
	s.holder.Set(*cur)
	return nil
}

func (s *SettingsService) Current() models.SiteSettings {
	return s.holder.Current()
}

func (s *SettingsService) Update(ctx context.Context, actor string, in *models.SiteSettings) (*models.SiteSettings, error) {
	if in == nil {
		return nil, NewInvalidError("settings required")
	}
	next := *in
	next.Phone = strings.TrimSpace(next.Phone)
	next.Email = strings.TrimSpace(next.Email)
	next.Address = strings.TrimSpace(next.Address)
	next.WorkingHours = strings.TrimSpace(next.WorkingHours)
	next.HeroTitle = strings.TrimSpace(next.HeroTitle)
	next.HeroSubtitle = strings.TrimSpace(next.HeroSubtitle)
	if err := validateStruct(&next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()
	if err := s.store.SaveSettings(ctx, &next); err != nil {
		return nil, persistErr("save settings", err)
	}
	s.holder.Set(next)
	s.store.AddAudit(ctx, models.AuditEntry{Time: next.UpdatedAt, Actor: actor, Action: "settings_update"})
	out := s.holder.Current()
	return &out, nil
}

// ExportYAML renders the current settings in the seed file format.
func (s *SettingsService) ExportYAML() ([]byte, error) {
	return sitecfg.MarshalYAML(s.holder.Current())
}
