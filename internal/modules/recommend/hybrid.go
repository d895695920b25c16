package recommend

import "fmt"

// Hybrid combines the three stage scores with fixed weights, clamped to [0,100].
func Hybrid(inductive, contentBased, collaborative float64) float64 {
	return clamp(inductiveWeight*inductive+contentWeight*contentBased+collaborativeWeight*collaborative, 0, 100)
}

func Label(score float64) string {
	switch {
	case score >= 80:
		return "highly recommended"
	case score >= 60:
		return "good match"
	default:
		return "average match"
	}
}

func reasoning(b Breakdown, final float64) []string {
	return []string{
		fmt.Sprintf("pattern match %.1f x %.2f = %.1f", b.Inductive, inductiveWeight, b.Inductive*inductiveWeight),
		fmt.Sprintf("personal history %.1f x %.2f = %.1f", b.ContentBased, contentWeight, b.ContentBased*contentWeight),
		fmt.Sprintf("similar riders %.1f x %.2f = %.1f", b.Collaborative, collaborativeWeight, b.Collaborative*collaborativeWeight),
		fmt.Sprintf("%s (%.1f)", Label(final), final),
	}
}
