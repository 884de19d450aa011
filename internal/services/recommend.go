package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mealbuddy/server/internal/config"
	"github.com/mealbuddy/server/internal/logging"
	"github.com/mealbuddy/server/internal/models"
)

// RecommendationClient talks to the external places/events ranking API.
// Every failure mode degrades to an empty list: suggestions are garnish, and
// the chat flow must never break because the adapter is down.
type RecommendationClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logging.Logger
	metrics    RecommendationMetrics
}

type RecommendationMetrics interface {
	RecordRecommendationFailure()
}

func NewRecommendationClient(cfg config.RecommendationsConfig, logger *logging.Logger, metrics RecommendationMetrics) *RecommendationClient {
	if logger == nil {
		logger = logging.Default
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RecommendationClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		logger:     logger,
		metrics:    metrics,
	}
}

// SuggestionQuery is the adapter input contract.
type SuggestionQuery struct {
	Latitude    float64
	Longitude   float64
	Category    string
	RadiusMiles float64
}

// Places returns ranked venue suggestions, or an empty slice on any failure.
func (c *RecommendationClient) Places(ctx context.Context, q SuggestionQuery) []models.Place {
	var out struct {
		Places []models.Place `json:"places"`
	}
	if err := c.get(ctx, "/v1/places", q, &out); err != nil {
		c.degrade("places", err)
		return []models.Place{}
	}
	if out.Places == nil {
		return []models.Place{}
	}
	return out.Places
}

// Events returns ranked event suggestions, or an empty slice on any failure.
func (c *RecommendationClient) Events(ctx context.Context, q SuggestionQuery) []models.Event {
	var out struct {
		Events []models.Event `json:"events"`
	}
	if err := c.get(ctx, "/v1/events", q, &out); err != nil {
		c.degrade("events", err)
		return []models.Event{}
	}
	if out.Events == nil {
		return []models.Event{}
	}
	return out.Events
}

func (c *RecommendationClient) get(ctx context.Context, path string, q SuggestionQuery, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("recommendations base URL not configured")
	}

	reqURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parsing recommendations url: %w", err)
	}
	params := reqURL.Query()
	params.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	params.Set("category", q.Category)
	params.Set("radius_miles", strconv.FormatFloat(q.RadiusMiles, 'f', -1, 64))
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("building recommendations request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling recommendations api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("recommendations api returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding recommendations response: %w", err)
	}
	return nil
}

func (c *RecommendationClient) degrade(kind string, err error) {
	if c.metrics != nil {
		c.metrics.RecordRecommendationFailure()
	}
	c.logger.Warn("recommendation lookup degraded to empty", map[string]interface{}{
		"kind":  kind,
		"error": err.Error(),
	})
}
