package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			if len(mf.GetMetric()) != 1 {
				t.Fatalf("expected 1 metric for %s, got %d", name, len(mf.GetMetric()))
			}
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestCreated()
	c.RecordInviteSent()
	c.RecordInviteSent()
	c.RecordDuplicateInvite()
	c.RecordMatchCreated()
	c.RecordMatchConflict()
	c.RecordUnmatch()
	c.RecordMessageSent()
	c.RecordRecommendationFailure()

	cases := map[string]float64{
		"mealbuddy_requests_created_total":        1,
		"mealbuddy_invites_sent_total":            2,
		"mealbuddy_duplicate_invites_total":       1,
		"mealbuddy_matches_created_total":         1,
		"mealbuddy_match_conflicts_total":         1,
		"mealbuddy_unmatches_total":               1,
		"mealbuddy_messages_sent_total":           1,
		"mealbuddy_recommendation_failures_total": 1,
	}
	for name, want := range cases {
		if got := counterValue(t, reg, name); got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordMatchCreated()

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "mealbuddy_matches_created_total 1") {
		t.Fatalf("expected match counter in scrape output, got:\n%s", body)
	}
}
