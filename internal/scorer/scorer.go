package scorer

import (
	"math"
	"strings"

	"vigilance-engine/internal/models"
)

// Scorer evaluates decoded content. Implementations must be deterministic.
type Scorer interface {
	Score(content string) models.ScoringResult
}

// Keyword is one entry of the threat table.
type Keyword struct {
	Phrase string
	Weight int
}

// DefaultKeywords is the built-in threat table, grouped by category.
var DefaultKeywords = []Keyword{
	// self-harm
	{"hurt myself", 80},
	{"suicide", 90},
	{"kill myself", 95},
	{"overdose", 85},
	{"cutting wrist", 90},

	// substances
	{"cocaine", 85},
	{"heroin", 90},
	{"meth", 85},
	{"crystal meth", 90},
	{"fentanyl", 95},
	{"xanax", 50},
	{"illegal drugs", 75},

	// violence
	{"beat up", 70},
	{"knife", 65},
	{"gun", 40},
	{"murder", 85},
	{"kill", 60},
	{"bomb", 80},
	{"school shooter", 95},

	// exploitation
	{"child abuse", 100},
	{"child porn", 100},
	{"exploitation", 75},
	{"trafficking", 85},

	// other
	{"runaway", 60},
	{"skip school", 30},
	{"cheating", 20},
}

// KeywordScorer matches content case-insensitively against a fixed table.
// The score is the heaviest matched weight, not a sum.
type KeywordScorer struct {
	keywords []Keyword
}

// NewKeywordScorer builds a scorer over keywords. Phrases are lowercased and
// later duplicates are dropped so a phrase is flagged at most once.
func NewKeywordScorer(keywords []Keyword) *KeywordScorer {
	seen := make(map[string]bool, len(keywords))
	table := make([]Keyword, 0, len(keywords))
	for _, kw := range keywords {
		phrase := strings.ToLower(strings.TrimSpace(kw.Phrase))
		if phrase == "" || seen[phrase] {
			continue
		}
		seen[phrase] = true
		table = append(table, Keyword{Phrase: phrase, Weight: clamp(kw.Weight)})
	}
	return &KeywordScorer{keywords: table}
}

// NewDefaultScorer returns a KeywordScorer over DefaultKeywords.
func NewDefaultScorer() *KeywordScorer {
	return NewKeywordScorer(DefaultKeywords)
}

func (s *KeywordScorer) Score(content string) models.ScoringResult {
	lower := strings.ToLower(content)

	flags := []string{}
	maxScore := 0
	for _, kw := range s.keywords {
		if strings.Contains(lower, kw.Phrase) {
			flags = append(flags, kw.Phrase)
			if kw.Weight > maxScore {
				maxScore = kw.Weight
			}
		}
	}

	return models.ScoringResult{
		Score:      maxScore,
		RiskTier:   TierFor(maxScore),
		Flags:      flags,
		Confidence: confidence(len(flags)),
	}
}

// TierFor maps a score to its risk tier.
func TierFor(score int) models.RiskTier {
	switch {
	case score >= 80:
		return models.RiskCritical
	case score >= 60:
		return models.RiskHigh
	case score >= 30:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// Explanation is the human-readable advice for a score, on the same thresholds as TierFor.
func Explanation(score int) string {
	switch TierFor(score) {
	case models.RiskCritical:
		return "Critical threat detected. Immediate parent notification recommended."
	case models.RiskHigh:
		return "High-risk content detected. Parent review recommended."
	case models.RiskMedium:
		return "Moderate concern detected. Parental awareness advised."
	default:
		return "Low risk detected. No action required."
	}
}

func confidence(flagCount int) float64 {
	c := 0.4 + 0.3*float64(flagCount)
	// keep 0.7 as 0.7 rather than 0.7000000000000001
	return math.Min(1, math.Round(c*100)/100)
}

func clamp(weight int) int {
	if weight < 0 {
		return 0
	}
	if weight > 100 {
		return 100
	}
	return weight
}
