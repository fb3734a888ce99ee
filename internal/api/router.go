package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ironpulse/clubsite/internal/crm"
	"github.com/ironpulse/clubsite/internal/logger"
	"github.com/ironpulse/clubsite/internal/middleware"
	"github.com/ironpulse/clubsite/internal/models"
	"github.com/ironpulse/clubsite/internal/services"
	"github.com/ironpulse/clubsite/internal/sitecfg"
	"github.com/ironpulse/clubsite/internal/utils"
)

// CRMChecker probes the CRM credentials for the admin diagnostics page.
type CRMChecker interface {
	CheckToken(ctx context.Context) crm.TokenStatus
}

type VersionInfo struct {
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

type Options struct {
	Log          *logger.Logger
	Auth         *middleware.Auth
	PasswordHash string
	SessionTTL   time.Duration
	CookieSecure bool
	Sinks        []services.LeadSink
	CRM          CRMChecker
	Holder       *sitecfg.Holder
	Seed         models.SiteSettings
	Version      VersionInfo
}

type Router struct {
	store   Store
	log     *logger.Logger
	auth    *middleware.Auth
	crm     CRMChecker
	secure  bool
	version VersionInfo

	catalog   *services.CatalogService
	questions *services.QuestionService
	rules     *services.RuleService
	quiz      *services.QuizService
	leads     *services.LeadService
	authSvc   *services.AuthService
	analytics *services.AnalyticsService
	export    *services.ExportService
	settings  *services.SettingsService
	site      *services.SiteService
}

func NewRouter(store Store, opts Options) *Router {
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}
	holder := opts.Holder
	if holder == nil {
		holder = sitecfg.NewHolder(opts.Seed)
	}
	rt := &Router{
		store:   store,
		log:     log,
		auth:    opts.Auth,
		crm:     opts.CRM,
		secure:  opts.CookieSecure,
		version: opts.Version,
	}
	rt.catalog = services.NewCatalogService(store)
	rt.questions = services.NewQuestionService(store)
	rt.rules = services.NewRuleService(store)
	rt.leads = services.NewLeadService(store, log, opts.Sinks...)
	rt.quiz = services.NewQuizService(store, rt.leads, log)
	var signer services.TokenSigner
	if opts.Auth != nil {
		signer = opts.Auth.Sign
	}
	rt.authSvc = services.NewAuthService(opts.PasswordHash, signer, opts.SessionTTL)
	rt.analytics = services.NewAnalyticsService(store)
	rt.export = services.NewExportService(store)
	rt.settings = services.NewSettingsService(store, holder, opts.Seed)
	rt.site = services.NewSiteService(rt.catalog, rt.quiz, rt.settings)
	return rt
}

// Init loads the stored site settings, seeding them on first run.
func (rt *Router) Init(ctx context.Context) error {
	return rt.settings.Reload(ctx)
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", rt.handleHealth)
	mux.HandleFunc("GET /version", rt.handleVersion)

	// public
	mux.HandleFunc("GET /api/site", rt.handleSite)
	mux.HandleFunc("GET /api/clubs", rt.handlePublicClubs)
	mux.HandleFunc("GET /api/trainers", rt.handlePublicTrainers)
	mux.HandleFunc("GET /api/directions", rt.handlePublicDirections)
	mux.HandleFunc("GET /api/quiz/questions", rt.handleQuizQuestions)
	mux.HandleFunc("POST /api/quiz/submit", rt.handleQuizSubmit)
	mux.HandleFunc("POST /api/leads", rt.handleCreateLead)

	// session
	mux.HandleFunc("POST /api/admin/login", rt.handleLogin)
	mux.HandleFunc("POST /api/admin/logout", rt.handleLogout)
	mux.Handle("GET /api/admin/me", rt.admin(rt.handleMe))

	// content
	registerCRUD(rt, mux, "clubs", crud[models.Club]{
		list: rt.catalog.ListClubs, get: rt.catalog.GetClub,
		create: rt.catalog.CreateClub, update: rt.catalog.UpdateClub, setActive: rt.catalog.SetClubActive,
	})
	registerCRUD(rt, mux, "trainers", crud[models.Trainer]{
		list: rt.catalog.ListTrainers, get: rt.catalog.GetTrainer,
		create: rt.catalog.CreateTrainer, update: rt.catalog.UpdateTrainer, setActive: rt.catalog.SetTrainerActive,
	})
	registerCRUD(rt, mux, "directions", crud[models.Direction]{
		list: rt.catalog.ListDirections, get: rt.catalog.GetDirection,
		create: rt.catalog.CreateDirection, update: rt.catalog.UpdateDirection, setActive: rt.catalog.SetDirectionActive,
	})
	registerCRUD(rt, mux, "questions", crud[models.Question]{
		list: rt.questions.List, get: rt.questions.Get,
		create: rt.questions.Create, update: rt.questions.Update, setActive: rt.questions.SetActive,
	})

	// quiz admin
	mux.Handle("POST /api/admin/questions/reorder", rt.admin(rt.handleReorderQuestions))
	mux.Handle("POST /api/admin/questions/{id}/options", rt.admin(rt.handleAddOption))
	mux.Handle("PUT /api/admin/questions/{id}/options/{optionID}", rt.admin(rt.handleUpdateOption))
	mux.Handle("DELETE /api/admin/questions/{id}/options/{optionID}", rt.admin(rt.handleOptionActive(false)))
	mux.Handle("POST /api/admin/questions/{id}/options/{optionID}/restore", rt.admin(rt.handleOptionActive(true)))

	mux.Handle("GET /api/admin/rules", rt.admin(rt.handleListRules))
	mux.Handle("POST /api/admin/rules", rt.admin(rt.handleCreateRule))
	mux.Handle("POST /api/admin/rules/preview", rt.admin(rt.handlePreviewRules))
	mux.Handle("GET /api/admin/rules/{id}", rt.admin(rt.handleGetRule))
	mux.Handle("PUT /api/admin/rules/{id}", rt.admin(rt.handleUpdateRule))
	mux.Handle("DELETE /api/admin/rules/{id}", rt.admin(rt.handleRuleActive(false)))
	mux.Handle("POST /api/admin/rules/{id}/restore", rt.admin(rt.handleRuleActive(true)))

	// reports, settings, diagnostics
	mux.Handle("GET /api/admin/quiz/stats", rt.admin(rt.handleQuizStats))
	mux.Handle("GET /api/admin/quiz/submissions.csv", rt.admin(rt.handleExportSubmissions))
	mux.Handle("GET /api/admin/leads", rt.admin(rt.handleListLeads))
	mux.Handle("GET /api/admin/leads.csv", rt.admin(rt.handleExportLeads))
	mux.Handle("GET /api/admin/settings", rt.admin(rt.handleGetSettings))
	mux.Handle("PUT /api/admin/settings", rt.admin(rt.handleUpdateSettings))
	mux.Handle("GET /api/admin/settings/export.yaml", rt.admin(rt.handleExportSettings))
	mux.Handle("GET /api/admin/crm/status", rt.admin(rt.handleCRMStatus))
	mux.Handle("GET /api/admin/audit", rt.admin(rt.handleAudit))
}

// admin wraps h so it only runs for a valid admin session.
func (rt *Router) admin(h http.HandlerFunc) http.Handler {
	if rt.auth == nil {
		return middleware.RequireAdmin(h)
	}
	return rt.auth.WithAuth(middleware.RequireAdmin(h))
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := rt.store.Ping(ctx); err != nil {
		rt.log.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "locale": locale})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"name":       "clubsite",
		"locale":     locale,
		"msg":        utils.T(locale, "health.ok"),
		"commit":     rt.version.Commit,
		"build_time": rt.version.BuildTime,
	})
}

func (rt *Router) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.version)
}
