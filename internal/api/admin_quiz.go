package api

import (
	"errors"
	"net/http"

	"github.com/ironpulse/clubsite/internal/matching"
	"github.com/ironpulse/clubsite/internal/models"
	"github.com/ironpulse/clubsite/internal/services"
)

func (rt *Router) handleReorderQuestions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Order []string `json:"order"`
	}
	if err := decodeJSON(r, &body); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	n, err := rt.questions.Reorder(r.Context(), actorFrom(r), body.Order)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": n})
}

func (rt *Router) handleAddOption(w http.ResponseWriter, r *http.Request) {
	var in models.AnswerOption
	if err := decodeJSON(r, &in); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	o, err := rt.questions.AddOption(r.Context(), actorFrom(r), r.PathValue("id"), &in)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (rt *Router) handleUpdateOption(w http.ResponseWriter, r *http.Request) {
	var in models.AnswerOption
	if err := decodeJSON(r, &in); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	o, err := rt.questions.UpdateOption(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("optionID"), &in)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (rt *Router) handleOptionActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		optionID := r.PathValue("optionID")
		if err := rt.questions.SetOptionActive(r.Context(), actorFrom(r), r.PathValue("id"), optionID, active); err != nil {
			rt.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": optionID, "active": active})
	}
}

func (rt *Router) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := rt.rules.List(r.Context(), r.URL.Query().Get("active") != "1")
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rules})
}

func (rt *Router) handleGetRule(w http.ResponseWriter, r *http.Request) {
	v, err := rt.rules.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (rt *Router) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var in services.RuleInput
	if err := decodeJSON(r, &in); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	v, err := rt.rules.Create(r.Context(), actorFrom(r), in)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (rt *Router) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var in services.RuleInput
	if err := decodeJSON(r, &in); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	v, err := rt.rules.Update(r.Context(), actorFrom(r), r.PathValue("id"), in)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (rt *Router) handleRuleActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := rt.rules.SetActive(r.Context(), actorFrom(r), id, active); err != nil {
			rt.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id, "active": active})
	}
}

// POST /api/admin/rules/preview {answers} evaluates without storing.
func (rt *Router) handlePreviewRules(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Answers answerMap `json:"answers"`
	}
	if err := decodeJSON(r, &body); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	matches, err := rt.rules.Preview(r.Context(), body.Answers)
	var mre *matching.MalformedRuleError
	if errors.As(err, &mre) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: mre.Error(), Code: "malformed_rule"})
		return
	}
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": matches})
}
