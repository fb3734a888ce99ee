package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ironpulse/clubsite/internal/models"
)

type SiteBundle struct {
	Settings   models.SiteSettings `json:"settings"`
	Clubs      []*models.Club      `json:"clubs"`
	Trainers   []*models.Trainer   `json:"trainers"`
	Directions []*models.Direction `json:"directions"`
	Questions  []*models.Question  `json:"questions"`
}

// SiteService assembles everything the public pages render in one response.
type SiteService struct {
	catalog  *CatalogService
	quiz     *QuizService
	settings *SettingsService
}

func NewSiteService(catalog *CatalogService, quiz *QuizService, settings *SettingsService) *SiteService {
	return &SiteService{catalog: catalog, quiz: quiz, settings: settings}
}

func (s *SiteService) Bundle(ctx context.Context) (*SiteBundle, error) {
	b := &SiteBundle{Settings: s.settings.Current()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		b.Clubs, err = s.catalog.ListClubs(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		b.Trainers, err = s.catalog.ListTrainers(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		b.Directions, err = s.catalog.ListDirections(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		b.Questions, err = s.quiz.Questions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return b, nil
}
