package classify

import (
	"context"
	"strings"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// categoryKeywords drives the fallback classifier. Matching is a lowercase
// substring test against title+description.
var categoryKeywords = map[domain.Category][]string{
	domain.CategoryRoads:       {"pothole", "road", "street", "pavement", "asphalt", "sidewalk", "crack"},
	domain.CategoryWater:       {"water", "pipe", "leak", "burst", "flood", "drain", "sewage"},
	domain.CategoryElectricity: {"power", "electric", "outage", "streetlight", "wire", "transformer", "lamp"},
	domain.CategoryWaste:       {"garbage", "trash", "waste", "litter", "dump", "bin", "rubbish"},
	domain.CategorySafety:      {"danger", "unsafe", "hazard", "accident", "crime", "vandal", "broken glass"},
	domain.CategoryParks:       {"park", "tree", "playground", "bench", "grass", "garden", "fountain"},
}

// KeywordClassifier is the deterministic local fallback. The category with
// the highest keyword-overlap count wins; ties are broken by the category
// enumeration order; confidence is matched/5 capped at 1.0.
type KeywordClassifier struct{}

// NewKeywordClassifier constructs the fallback classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify never returns an error; the error is part of the Classifier
// interface only.
func (k *KeywordClassifier) Classify(_ context.Context, title, description string) (*Suggestion, error) {
	text := strings.ToLower(title + " " + description)

	best := domain.CategoryOther
	var bestMatched []string
	for _, category := range domain.Categories() {
		var matched []string
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(text, keyword) {
				matched = append(matched, keyword)
			}
		}
		// strict > keeps the first (enumeration-order) category on ties
		if len(matched) > len(bestMatched) {
			best = category
			bestMatched = matched
		}
	}

	confidence := float64(len(bestMatched)) / 5
	if confidence > 1 {
		confidence = 1
	}
	return &Suggestion{
		Category:   best,
		Confidence: confidence,
		Keywords:   bestMatched,
	}, nil
}
