// Package rank turns raw probability vectors into ranked top-K results.
package rank

import (
	"fmt"
	"sort"

	"github.com/agriscan/agriscan-api/internal/model"
)

// TopK pairs each probability with its label, sorts descending by
// confidence, and truncates to the first k entries. Ties are broken by
// ascending label index, so repeated calls on identical input produce
// identical results. The best entry becomes the overall prediction.
func TopK(probs []float32, labels []string, k int) (model.ClassificationResult, error) {
	if len(probs) == 0 {
		return model.ClassificationResult{}, fmt.Errorf("rank: empty probability vector")
	}
	if len(probs) != len(labels) {
		return model.ClassificationResult{}, fmt.Errorf("rank: %d probabilities for %d labels", len(probs), len(labels))
	}
	if k <= 0 {
		return model.ClassificationResult{}, fmt.Errorf("rank: k must be positive, got %d", k)
	}

	ranked := make([]model.RankedPrediction, len(probs))
	for i, p := range probs {
		ranked[i] = model.RankedPrediction{Class: labels[i], Confidence: float64(p)}
	}

	// Stable sort keeps the original (ascending label index) order for
	// equal confidences.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	if k < len(ranked) {
		ranked = ranked[:k]
	}

	return model.ClassificationResult{
		PredictedDisease: ranked[0].Class,
		Confidence:       ranked[0].Confidence,
		Ranked:           ranked,
	}, nil
}
