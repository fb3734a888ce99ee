//go:build integration

package main_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("CLUBSITE_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

// TestQuizFlowIntegration runs against a live server started with
// CLUBSITE_ADMIN_PASSWORD set to CLUBSITE_TEST_ADMIN_PASSWORD.
func TestQuizFlowIntegration(t *testing.T) {
	password := os.Getenv("CLUBSITE_TEST_ADMIN_PASSWORD")
	if password == "" {
		t.Skip("CLUBSITE_TEST_ADMIN_PASSWORD not set")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Timeout: 5 * time.Second, Jar: jar}
	base := baseURL()

	doJSON(t, client, http.MethodPost, base+"/api/admin/login", map[string]string{"password": password}, nil)

	suffix := time.Now().UnixNano()
	var question struct {
		ID string `json:"id"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/admin/questions", map[string]any{
		"text":  fmt.Sprintf("Goal %d", suffix),
		"kind":  "single",
		"order": 1,
		"options": []map[string]string{
			{"text": "Strength", "value": "strength"},
			{"text": "Relax", "value": "relax"},
		},
	}, &question)
	if question.ID == "" {
		t.Fatalf("question not created")
	}
	defer doJSON(t, client, http.MethodDelete, base+"/api/admin/questions/"+question.ID, nil, nil)

	ruleName := fmt.Sprintf("integration-%d", suffix)
	var rule struct {
		ID string `json:"id"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/admin/rules", map[string]any{
		"name":     ruleName,
		"priority": 1000,
		"conditions": []map[string]any{
			{"question_id": question.ID, "answer_values": []string{"strength"}, "operator": "in"},
		},
	}, &rule)
	defer doJSON(t, client, http.MethodDelete, base+"/api/admin/rules/"+rule.ID, nil, nil)

	var submit struct {
		Success         bool `json:"success"`
		Recommendations []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"recommendations"`
	}
	doJSON(t, client, http.MethodPost, base+"/api/quiz/submit", map[string]any{
		"session_id": fmt.Sprintf("it-%d", suffix),
		"answers":    map[string]string{question.ID: "strength"},
	}, &submit)
	if !submit.Success || len(submit.Recommendations) == 0 || submit.Recommendations[0].ID != rule.ID {
		t.Fatalf("expected %s first, got %+v", ruleName, submit)
	}

	doJSON(t, client, http.MethodPost, base+"/api/quiz/submit", map[string]any{
		"session_id": fmt.Sprintf("it-%d", suffix),
		"answers":    map[string]string{question.ID: "relax"},
	}, &submit)
	for _, rec := range submit.Recommendations {
		if rec.ID == rule.ID {
			t.Fatalf("rule %s must not match relax", ruleName)
		}
	}

	resp, err := client.Get(base + "/api/admin/quiz/submissions.csv")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), question.ID) {
		t.Fatalf("export missing question column: %d %s", resp.StatusCode, body)
	}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, out any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s %s: %s", resp.StatusCode, method, url, string(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
