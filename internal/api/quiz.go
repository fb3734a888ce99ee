package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ironpulse/clubsite/internal/matching"
	"github.com/ironpulse/clubsite/internal/middleware"
	"github.com/ironpulse/clubsite/internal/services"
	"github.com/ironpulse/clubsite/internal/utils"
)

// answerMap accepts string, number and boolean answer values and stores their
// textual form. A null answer counts as unanswered.
type answerMap map[string]string

func (a *answerMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(answerMap, len(raw))
	for qid, v := range raw {
		v = bytes.TrimSpace(v)
		if len(v) == 0 {
			continue
		}
		switch v[0] {
		case '"':
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			out[qid] = s
		case 't', 'f':
			var b bool
			if err := json.Unmarshal(v, &b); err != nil {
				return err
			}
			out[qid] = strconv.FormatBool(b)
		case 'n':
			// unanswered
		case '[', '{':
			return fmt.Errorf("answer for %q must be a single value", qid)
		default:
			var n json.Number
			if err := json.Unmarshal(v, &n); err != nil {
				return err
			}
			out[qid] = n.String()
		}
	}
	*a = out
	return nil
}

type submitBody struct {
	SessionID string                 `json:"session_id"`
	Answers   answerMap              `json:"answers"`
	Contact   *services.ContactInput `json:"contact,omitempty"`
}

type submitResponse struct {
	Success         bool                    `json:"success"`
	Recommendations []matching.MatchSummary `json:"recommendations"`
	SubmissionID    string                  `json:"submission_id,omitempty"`
	LeadID          string                  `json:"lead_id,omitempty"`
}

// POST /api/quiz/submit
func (rt *Router) handleQuizSubmit(w http.ResponseWriter, r *http.Request) {
	var body submitBody
	if err := decodeJSON(r, &body); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	res, err := rt.quiz.Submit(r.Context(), services.SubmitRequest{
		SessionID: body.SessionID,
		Answers:   body.Answers,
		Contact:   body.Contact,
	})
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	out := submitResponse{Success: true, Recommendations: res.Recommendations, LeadID: res.LeadID}
	if res.Persisted {
		out.SubmissionID = res.SubmissionID
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /api/leads
func (rt *Router) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var in services.LeadInput
	if err := decodeJSON(r, &in); err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	lead, err := rt.leads.Capture(r.Context(), in)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"id":        lead.ID,
		"forwarded": lead.Forwarded,
		"message":   utils.T(locale, "lead.accepted"),
	})
}
