package questionnaire

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scoredAt = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func TestCategoriesShape(t *testing.T) {
	t.Parallel()

	cats := Categories()
	require.Len(t, cats, 5)
	for _, c := range cats {
		assert.Len(t, c.Questions, 5, "category %s", c.ID)
		for _, q := range c.Questions {
			assert.Len(t, q.Descriptions, 4, "question %s", q.ID)
		}
	}
}

// answersWithValue builds a full answer sheet with every question at
// the same value.
func answersWithValue(v int) []Answer {
	var answers []Answer
	for _, c := range categories {
		for _, q := range c.Questions {
			answers = append(answers, Answer{CategoryID: c.ID, QuestionID: q.ID, Value: v})
		}
	}
	return answers
}

func TestScoreAllMax(t *testing.T) {
	t.Parallel()

	result := Score(answersWithValue(3), scoredAt)
	assert.Equal(t, 100, result.OverallScore)
	for _, cs := range result.CategoryScores {
		assert.Equal(t, 100, cs.Score)
		assert.Equal(t, 15, cs.RawTotal)
		assert.Equal(t, 15, cs.MaxPossible)
	}
	assert.Equal(t, "2026-03-14T09:30:00Z", result.Timestamp)
}

func TestScoreRoundsPerCategory(t *testing.T) {
	t.Parallel()

	// One answer of 1 in retention, everything else zero: 1/15 = 6.67,
	// rounds to 7.
	answers := []Answer{{CategoryID: "retention", QuestionID: "retention_1", Value: 1}}
	result := Score(answers, scoredAt)

	require.Equal(t, "retention", result.CategoryScores[0].CategoryID)
	assert.Equal(t, 7, result.CategoryScores[0].Score)
	// Overall mean (7+0+0+0+0)/5 = 1.4, rounds to 1.
	assert.Equal(t, 1, result.OverallScore)
}

func TestScoreLowestTwoCategories(t *testing.T) {
	t.Parallel()

	answers := answersWithValue(3)
	// Drag monetization to zero and community to a middling score.
	filtered := answers[:0]
	for _, a := range answers {
		switch a.CategoryID {
		case "monetization":
			continue
		case "community":
			a.Value = 1
		}
		filtered = append(filtered, a)
	}

	result := Score(filtered, scoredAt)
	require.Len(t, result.LowestCategories, 2)
	assert.Equal(t, "monetization", result.LowestCategories[0].CategoryID)
	assert.Equal(t, "community", result.LowestCategories[1].CategoryID)
}

func TestValidateAnswers(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateAnswers(answersWithValue(2)))
	require.NoError(t, ValidateAnswers(nil), "missing answers score as zero")

	err := ValidateAnswers([]Answer{{CategoryID: "retention", QuestionID: "retention_1", Value: 4}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	err = ValidateAnswers([]Answer{{CategoryID: "nope", QuestionID: "x", Value: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")

	err = ValidateAnswers([]Answer{{CategoryID: "retention", QuestionID: "monetization_1", Value: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown question")
}

func TestFormatScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Strong", FormatScore(80))
	assert.Equal(t, "Moderate", FormatScore(79))
	assert.Equal(t, "Developing", FormatScore(40))
	assert.Equal(t, "Needs focus", FormatScore(39))
}

func TestTextSummary(t *testing.T) {
	t.Parallel()

	result := Score(answersWithValue(2), scoredAt)
	summary := TextSummary(result)
	assert.True(t, strings.HasPrefix(summary, "Evergreen Readiness: 67/100"))
	assert.Contains(t, summary, "Focus areas:")
}

func TestRecommendationFor(t *testing.T) {
	t.Parallel()

	rec := RecommendationFor("retention")
	assert.Contains(t, rec.Diagnosis, "Event rhythm")
	require.Len(t, rec.Actions, 2)

	fallback := RecommendationFor("mystery")
	assert.Equal(t, "This area needs attention.", fallback.Diagnosis)
}
