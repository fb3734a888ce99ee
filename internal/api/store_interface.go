package api

import (
	"context"

	"github.com/ironpulse/clubsite/internal/models"
	"github.com/ironpulse/clubsite/internal/services"
)

// Store is everything the HTTP layer needs from persistence. Both the
// in-memory store and db.SQLiteStore implement it.
type Store interface {
	services.CatalogStore
	services.QuestionStore
	services.RuleStore
	services.QuizStore
	services.LeadStore
	services.ExportStore
	services.SettingsStore

	ListAudit(ctx context.Context, limit int) ([]models.AuditEntry, error)
	Ping(ctx context.Context) error
}

var _ Store = (*memoryStore)(nil)
