package api

import (
	"net/http"
)

func (rt *Router) handleSite(w http.ResponseWriter, r *http.Request) {
	b, err := rt.site.Bundle(r.Context())
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (rt *Router) handlePublicClubs(w http.ResponseWriter, r *http.Request) {
	clubs, err := rt.catalog.ListClubs(r.Context(), false)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clubs": clubs})
}

func (rt *Router) handlePublicTrainers(w http.ResponseWriter, r *http.Request) {
	trainers, err := rt.catalog.ListTrainers(r.Context(), false)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	if club := r.URL.Query().Get("club_id"); club != "" {
		filtered := trainers[:0]
		for _, t := range trainers {
			for _, id := range t.ClubIDs {
				if id == club {
					filtered = append(filtered, t)
					break
				}
			}
		}
		trainers = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"trainers": trainers})
}

func (rt *Router) handlePublicDirections(w http.ResponseWriter, r *http.Request) {
	dirs, err := rt.catalog.ListDirections(r.Context(), false)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"directions": dirs})
}

func (rt *Router) handleQuizQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := rt.quiz.Questions(r.Context())
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
}
