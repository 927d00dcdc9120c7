package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

func TestKeywordClassifierWaterLeak(t *testing.T) {
	classifier := NewKeywordClassifier()

	suggestion, err := classifier.Classify(context.Background(), "Water pipe burst", "flooding the street near the drain")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryWater, suggestion.Category)
	require.GreaterOrEqual(t, suggestion.Confidence, 0.6)
	require.Contains(t, suggestion.Keywords, "water")
	require.Contains(t, suggestion.Keywords, "pipe")
}

func TestKeywordClassifierNoMatches(t *testing.T) {
	classifier := NewKeywordClassifier()

	suggestion, err := classifier.Classify(context.Background(), "Question about my bill", "the amount seems wrong")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryOther, suggestion.Category)
	require.Equal(t, 0.0, suggestion.Confidence)
	require.Empty(t, suggestion.Keywords)
}

func TestKeywordClassifierTieBreaksByCategoryOrder(t *testing.T) {
	classifier := NewKeywordClassifier()

	// one roads keyword, one parks keyword: roads wins by enumeration order
	suggestion, err := classifier.Classify(context.Background(), "pothole", "right next to the playground")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryRoads, suggestion.Category)
}

func TestKeywordClassifierConfidenceCapped(t *testing.T) {
	classifier := NewKeywordClassifier()

	suggestion, err := classifier.Classify(context.Background(),
		"water pipe leak", "burst pipe flooding the drain with sewage")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryWater, suggestion.Category)
	require.Equal(t, 1.0, suggestion.Confidence)
}

func TestKeywordClassifierCaseInsensitive(t *testing.T) {
	classifier := NewKeywordClassifier()

	suggestion, err := classifier.Classify(context.Background(), "POTHOLE ON MAIN ST", "")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryRoads, suggestion.Category)
}
