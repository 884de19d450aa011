// Package metrics collects and exposes Prometheus metrics for the match
// lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts the domain events the services report. It satisfies the
// per-service metrics interfaces so each service sees only its own slice.
type Collector struct {
	requestsCreated   prometheus.Counter
	invitesSent       prometheus.Counter
	duplicateInvites  prometheus.Counter
	matchesCreated    prometheus.Counter
	matchConflicts    prometheus.Counter
	unmatches         prometheus.Counter
	messagesSent      prometheus.Counter
	recommendFailures prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requestsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mealbuddy_requests_created_total",
			Help: "Total number of meal requests created.",
		}),
		invitesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mealbuddy_invites_sent_total",
			Help: "Total number of invites appended to requests.",
		}),
		duplicateInvites: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mealbuddy_duplicate_invites_total",
			Help: "Total number of invite attempts rejected as duplicates.",
		}),
		matchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mealbuddy_matches_created_total",
			Help: "Total number of matches created.",
		}),
		matchConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mealbuddy_match_conflicts_total",
			Help: "Total number of match attempts that lost to an existing match.",
		}),
		unmatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mealbuddy_unmatches_total",
			Help: "Total number of matches deleted.",
		}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mealbuddy_messages_sent_total",
			Help: "Total number of chat messages appended.",
		}),
		recommendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mealbuddy_recommendation_failures_total",
			Help: "Total number of recommendation lookups that degraded to an empty list.",
		}),
	}

	reg.MustRegister(
		c.requestsCreated,
		c.invitesSent,
		c.duplicateInvites,
		c.matchesCreated,
		c.matchConflicts,
		c.unmatches,
		c.messagesSent,
		c.recommendFailures,
	)

	return c
}

func (c *Collector) RecordRequestCreated()        { c.requestsCreated.Inc() }
func (c *Collector) RecordInviteSent()            { c.invitesSent.Inc() }
func (c *Collector) RecordDuplicateInvite()       { c.duplicateInvites.Inc() }
func (c *Collector) RecordMatchCreated()          { c.matchesCreated.Inc() }
func (c *Collector) RecordMatchConflict()         { c.matchConflicts.Inc() }
func (c *Collector) RecordUnmatch()               { c.unmatches.Inc() }
func (c *Collector) RecordMessageSent()           { c.messagesSent.Inc() }
func (c *Collector) RecordRecommendationFailure() { c.recommendFailures.Inc() }

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
