package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vigilance-engine/internal/models"
)

func TestKeywordScorerScenarios(t *testing.T) {
	s := NewDefaultScorer()

	tests := []struct {
		content   string
		wantScore int
		wantTier  models.RiskTier
		wantFlag  string
	}{
		{"I want to hurt myself", 80, models.RiskCritical, "hurt myself"},
		{"let's skip school today", 30, models.RiskMedium, "skip school"},
		{"fentanyl deal tonight", 95, models.RiskCritical, "fentanyl"},
		{"he has a KNIFE", 65, models.RiskHigh, "knife"},
		{"are you cheating on the test", 20, models.RiskLow, "cheating"},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			res := s.Score(tt.content)
			assert.Equal(t, tt.wantScore, res.Score)
			assert.Equal(t, tt.wantTier, res.RiskTier)
			assert.Contains(t, res.Flags, tt.wantFlag)
		})
	}
}

func TestKeywordScorerNoMatch(t *testing.T) {
	res := NewDefaultScorer().Score("see you at practice")

	assert.Equal(t, 0, res.Score)
	assert.Equal(t, models.RiskLow, res.RiskTier)
	assert.Empty(t, res.Flags)
	assert.NotNil(t, res.Flags)
	assert.Equal(t, 0.4, res.Confidence)
}

func TestKeywordScorerMaxNotSum(t *testing.T) {
	res := NewDefaultScorer().Score("cheating and skip school and a gun")

	assert.Equal(t, 40, res.Score)
	assert.ElementsMatch(t, []string{"cheating", "skip school", "gun"}, res.Flags)
	assert.Equal(t, 1.0, res.Confidence)
}

func TestKeywordScorerConfidence(t *testing.T) {
	s := NewKeywordScorer([]Keyword{{"alpha", 10}, {"beta", 20}, {"gamma", 30}})

	assert.Equal(t, 0.4, s.Score("nothing").Confidence)
	assert.Equal(t, 0.7, s.Score("alpha").Confidence)
	assert.Equal(t, 1.0, s.Score("alpha beta").Confidence)
	assert.Equal(t, 1.0, s.Score("alpha beta gamma").Confidence)
}

func TestKeywordScorerDeduplicates(t *testing.T) {
	s := NewKeywordScorer([]Keyword{{"Knife", 65}, {"knife", 10}, {"  ", 99}, {"huge", 500}})

	res := s.Score("knife knife knife")
	assert.Equal(t, []string{"knife"}, res.Flags)
	assert.Equal(t, 65, res.Score)

	assert.Equal(t, 100, s.Score("huge").Score)
}

func TestKeywordScorerDeterministic(t *testing.T) {
	s := NewDefaultScorer()
	content := "I will kill myself with a knife after I skip school"

	first := s.Score(content)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, s.Score(content))
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		score int
		want  models.RiskTier
	}{
		{0, models.RiskLow},
		{29, models.RiskLow},
		{30, models.RiskMedium},
		{59, models.RiskMedium},
		{60, models.RiskHigh},
		{79, models.RiskHigh},
		{80, models.RiskCritical},
		{100, models.RiskCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.score), "score %d", tt.score)
	}
}

func TestExplanation(t *testing.T) {
	assert.Contains(t, Explanation(95), "Immediate parent notification recommended")
	assert.Contains(t, Explanation(65), "review recommended")
	assert.Contains(t, Explanation(30), "awareness advised")
	assert.Contains(t, Explanation(0), "No action required")
}
