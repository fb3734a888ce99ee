package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironpulse/clubsite/internal/models"
)

type sinkStub struct {
	name string
	err  error

	mu  sync.Mutex
	got []models.LeadNotice
}

func (s *sinkStub) Name() string { return s.name }

func (s *sinkStub) Deliver(_ context.Context, n models.LeadNotice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return s.err
}

// hungSink ignores ctx and blocks until released, like a client without a timeout.
type hungSink struct {
	release chan struct{}
}

func (h *hungSink) Name() string { return "hung" }

func (h *hungSink) Deliver(context.Context, models.LeadNotice) error {
	<-h.release
	return nil
}

func newTestLeads(sinks ...LeadSink) (*LeadService, *stubStore) {
	store := newStubStore()
	store.clubs = []*models.Club{{ID: "c1", Name: "Center", Active: true}}
	svc := NewLeadService(store, nil, sinks...)
	svc.now = fixedClock()
	svc.idGen = seqIDs("lead")
	return svc, store
}

func TestLeadCaptureForwardsToAllSinks(t *testing.T) {
	crm := &sinkStub{name: "crm"}
	tg := &sinkStub{name: "telegram"}
	svc, store := newTestLeads(crm, tg)

	lead, err := svc.Capture(context.Background(), LeadInput{
		Name:            " Ivan ",
		Phone:           "+7 (900) 123-45-67",
		ClubID:          "c1",
		Recommendations: []string{"Boxing"},
	})
	require.NoError(t, err)
	assert.Equal(t, "lead1", lead.ID)
	assert.Equal(t, "Ivan", lead.Name)
	assert.Equal(t, "+79001234567", lead.Phone)
	assert.Equal(t, "site", lead.Source)
	assert.True(t, lead.Forwarded)

	require.Len(t, store.leads, 1)
	assert.True(t, store.leads[0].Forwarded)
	for _, s := range []*sinkStub{crm, tg} {
		require.Len(t, s.got, 1, s.name)
		assert.Equal(t, "Center", s.got[0].ClubName)
		assert.Equal(t, []string{"Boxing"}, s.got[0].Recommendations)
		assert.Equal(t, "lead1", s.got[0].Lead.ID)
	}
}

func TestLeadCaptureSinkFailureKeepsLead(t *testing.T) {
	crm := &sinkStub{name: "crm", err: errors.New("502")}
	tg := &sinkStub{name: "telegram"}
	svc, store := newTestLeads(crm, tg)

	lead, err := svc.Capture(context.Background(), LeadInput{Name: "Ivan", Phone: "89001234567"})
	require.NoError(t, err)
	assert.False(t, lead.Forwarded)
	require.Len(t, store.leads, 1)
	assert.False(t, store.leads[0].Forwarded)
	assert.Len(t, tg.got, 1)
}

func TestLeadCaptureWithoutSinks(t *testing.T) {
	svc, store := newTestLeads()
	lead, err := svc.Capture(context.Background(), LeadInput{Name: "Ivan", Phone: "89001234567", Source: "quiz"})
	require.NoError(t, err)
	assert.False(t, lead.Forwarded)
	assert.Equal(t, "quiz", store.leads[0].Source)
}

func TestLeadCaptureRejects(t *testing.T) {
	svc, store := newTestLeads()

	_, err := svc.Capture(context.Background(), LeadInput{Name: "Ivan", Phone: "12"})
	assert.True(t, IsValidation(err))

	_, err = svc.Capture(context.Background(), LeadInput{Phone: "89001234567"})
	assert.True(t, IsValidation(err))

	_, err = svc.Capture(context.Background(), LeadInput{Name: "Ivan", Phone: "89001234567", ClubID: "nope"})
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorNotFound, se.Code)
	assert.Empty(t, store.leads)

	store.fail["InsertLead"] = errors.New("full")
	_, err = svc.Capture(context.Background(), LeadInput{Name: "Ivan", Phone: "89001234567"})
	var pe *PersistenceError
	assert.ErrorAs(t, err, &pe)
}

func TestLeadMarkForwardedFailure(t *testing.T) {
	svc, store := newTestLeads(&sinkStub{name: "crm"})
	store.fail["MarkLeadForwarded"] = errors.New("locked")
	lead, err := svc.Capture(context.Background(), LeadInput{Name: "Ivan", Phone: "89001234567"})
	require.NoError(t, err)
	assert.False(t, lead.Forwarded)
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"+7 (900) 123-45-67": "+79001234567",
		" 8 900 123 45 67 ":  "89001234567",
		"12+34":              "1234",
		"":                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}

func TestLeadCaptureDoesNotWaitPastDeadline(t *testing.T) {
	hung := &hungSink{release: make(chan struct{})}
	defer close(hung.release)
	crm := &sinkStub{name: "crm"}
	svc, store := newTestLeads(crm, hung)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	lead, err := svc.Capture(ctx, LeadInput{Name: "Olga", Phone: "8 900 123"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, lead.Forwarded)
	require.Len(t, store.leads, 1)
	assert.False(t, store.leads[0].Forwarded)
}
