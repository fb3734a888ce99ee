package api

import (
	"net/http"
	"strconv"

	"github.com/ironpulse/clubsite/internal/middleware"
	"github.com/ironpulse/clubsite/internal/models"
	"github.com/ironpulse/clubsite/internal/services"
	"github.com/ironpulse/clubsite/internal/utils"
)

// POST /api/admin/login {password}
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	res, err := rt.authSvc.Login(body.Password)
	if err != nil {
		if se, ok := services.AsServiceError(err); ok && se.Code == services.ErrorUnauthorized {
			rt.log.Warn("admin login rejected", "request_id", middleware.RequestIDFromContext(r.Context()), "remote", r.RemoteAddr)
			locale := middleware.LocaleFromContext(r.Context())
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: utils.T(locale, "error.unauthorized"), Code: string(se.Code)})
			return
		}
		rt.writeServiceError(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, res.Token, res.ExpiresIn, rt.secure)
	rt.store.AddAudit(r.Context(), models.AuditEntry{Time: nowUTC(), Actor: res.Subject, Action: "login"})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "expires_in": int(res.ExpiresIn.Seconds())})
}

func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w, rt.secure)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"subject": actorFrom(r)})
}

// GET /api/admin/quiz/stats?days=30
func (rt *Router) handleQuizStats(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			rt.writeServiceError(w, r, services.NewInvalidError("days must be a non-negative integer"))
			return
		}
		days = n
	}
	st, err := rt.analytics.QuizStats(r.Context(), days)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (rt *Router) handleExportSubmissions(w http.ResponseWriter, r *http.Request) {
	res, err := rt.export.Submissions(r.Context())
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeExport(w, res)
}

func (rt *Router) handleExportLeads(w http.ResponseWriter, r *http.Request) {
	res, err := rt.export.Leads(r.Context())
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeExport(w, res)
}

func writeExport(w http.ResponseWriter, res *services.ExportResult) {
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// GET /api/admin/leads?limit=50
func (rt *Router) handleListLeads(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 100)
	leads, err := rt.leads.List(r.Context(), limit)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": leads})
}

func (rt *Router) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.settings.Current())
}

func (rt *Router) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in models.SiteSettings
	if err := decodeJSON(r, &in); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	out, err := rt.settings.Update(r.Context(), actorFrom(r), &in)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) handleExportSettings(w http.ResponseWriter, r *http.Request) {
	data, err := rt.settings.ExportYAML()
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="site.yaml"`)
	_, _ = w.Write(data)
}

func (rt *Router) handleCRMStatus(w http.ResponseWriter, r *http.Request) {
	if rt.crm == nil {
		writeJSON(w, http.StatusOK, map[string]any{"configured": false})
		return
	}
	writeJSON(w, http.StatusOK, rt.crm.CheckToken(r.Context()))
}

func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := rt.store.ListAudit(r.Context(), queryLimit(r, 200))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

// queryLimit reads ?limit, clamped to [1, 1000].
func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > 1000 {
		return 1000
	}
	return n
}
