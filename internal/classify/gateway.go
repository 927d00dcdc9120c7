package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// GatewayConfig holds connection values for the external classification
// service.
type GatewayConfig struct {
	Endpoint       string
	APIKey         string
	TimeoutSeconds int
}

// Gateway calls the external AI classification service. Requests are
// cancellable and time-bounded; any failure is reported to the caller, which
// is expected to fall back rather than propagate.
type Gateway struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewGateway builds a gateway client, or nil when no endpoint is configured.
func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.Endpoint == "" {
		return nil
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gateway{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type gatewayRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type gatewayResponse struct {
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
	IssueType  string   `json:"issueType"`
	RiskLevel  string   `json:"riskLevel"`
}

// Classify posts the submission text and returns the service's suggestion.
func (g *Gateway) Classify(ctx context.Context, title, description string) (*Suggestion, error) {
	body, err := json.Marshal(gatewayRequest{Title: title, Description: description})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("classification gateway status %d", resp.StatusCode)
	}

	var parsed gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode classification response: %w", err)
	}

	category := domain.Category(parsed.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("classification gateway returned unknown category %q", parsed.Category)
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		return nil, fmt.Errorf("classification gateway returned confidence %v outside [0,1]", parsed.Confidence)
	}

	return &Suggestion{
		Category:   category,
		Confidence: parsed.Confidence,
		Keywords:   parsed.Keywords,
		IssueType:  parsed.IssueType,
		RiskLevel:  parsed.RiskLevel,
	}, nil
}
