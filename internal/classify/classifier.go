package classify

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// Suggestion is a classifier's opinion about a submission. It is untrusted
// input: callers validate it like a manual submission before applying it.
type Suggestion struct {
	Category   domain.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	Keywords   []string        `json:"keywords,omitempty"`
	IssueType  string          `json:"issueType,omitempty"`
	RiskLevel  string          `json:"riskLevel,omitempty"`
}

// Classifier suggests a category for free-text submissions.
type Classifier interface {
	Classify(ctx context.Context, title, description string) (*Suggestion, error)
}

// Suggester wraps the external gateway with the deterministic keyword
// fallback. Suggest never fails: gateway errors degrade to the fallback so
// issue creation is never blocked by the classification service.
type Suggester struct {
	gateway  Classifier
	fallback *KeywordClassifier
	logger   *zap.Logger
}

// NewSuggester builds a Suggester. gateway may be nil when no endpoint is
// configured; the fallback then handles every request.
func NewSuggester(gateway Classifier, logger *zap.Logger) *Suggester {
	return &Suggester{
		gateway:  gateway,
		fallback: NewKeywordClassifier(),
		logger:   logger,
	}
}

// Suggest returns the gateway's suggestion when it is usable, otherwise the
// keyword fallback's.
func (s *Suggester) Suggest(ctx context.Context, title, description string) Suggestion {
	if s.gateway != nil {
		suggestion, err := s.gateway.Classify(ctx, title, description)
		if err == nil && suggestion.Category.Valid() {
			return *suggestion
		}
		if err != nil {
			s.logger.Warn("classification gateway unavailable, using keyword fallback", zap.Error(err))
		} else {
			s.logger.Warn("classification gateway returned unknown category, using keyword fallback",
				zap.String("category", string(suggestion.Category)))
		}
	}
	suggestion, _ := s.fallback.Classify(ctx, title, description)
	return *suggestion
}
