package questionnaire

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Answer is one submitted response.
type Answer struct {
	CategoryID string `json:"categoryId"`
	QuestionID string `json:"questionId"`
	Value      int    `json:"value"` // 0..3
}

// CategoryScore is the per-category result.
type CategoryScore struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Score        int    `json:"score"` // 0..100
	RawTotal     int    `json:"rawTotal"`
	MaxPossible  int    `json:"maxPossible"`
}

// Result is the scored questionnaire.
type Result struct {
	OverallScore     int             `json:"overallScore"`
	CategoryScores   []CategoryScore `json:"categoryScores"`
	LowestCategories []CategoryScore `json:"lowestCategories"`
	Answers          []Answer        `json:"answers"`
	Timestamp        string          `json:"timestamp"`
}

// ValidateAnswers rejects answers outside the 0-3 range or referencing
// unknown questions. Missing answers are allowed and score as zero.
func ValidateAnswers(answers []Answer) error {
	known := make(map[string]map[string]bool, len(categories))
	for _, c := range categories {
		qs := make(map[string]bool, len(c.Questions))
		for _, q := range c.Questions {
			qs[q.ID] = true
		}
		known[c.ID] = qs
	}

	for _, a := range answers {
		if a.Value < 0 || a.Value > 3 {
			return fmt.Errorf("answer %s/%s: value %d out of range 0-3", a.CategoryID, a.QuestionID, a.Value)
		}
		qs, ok := known[a.CategoryID]
		if !ok {
			return fmt.Errorf("unknown category %q", a.CategoryID)
		}
		if !qs[a.QuestionID] {
			return fmt.Errorf("unknown question %q in category %q", a.QuestionID, a.CategoryID)
		}
	}
	return nil
}

// Score computes per-category and overall readiness scores. Each
// category normalizes its raw total against the maximum of three points
// per question; the overall score is the rounded mean of the category
// scores, and the two weakest categories become the focus areas.
func Score(answers []Answer, now time.Time) Result {
	scores := make([]CategoryScore, 0, len(categories))
	for _, category := range categories {
		rawTotal := 0
		for _, a := range answers {
			if a.CategoryID == category.ID {
				rawTotal += a.Value
			}
		}
		maxPossible := len(category.Questions) * 3
		score := int(math.Round(float64(rawTotal) / float64(maxPossible) * 100))

		scores = append(scores, CategoryScore{
			CategoryID:   category.ID,
			CategoryName: category.Name,
			Score:        score,
			RawTotal:     rawTotal,
			MaxPossible:  maxPossible,
		})
	}

	sum := 0
	for _, cs := range scores {
		sum += cs.Score
	}
	overall := int(math.Round(float64(sum) / float64(len(scores))))

	lowest := make([]CategoryScore, len(scores))
	copy(lowest, scores)
	sort.SliceStable(lowest, func(i, j int) bool {
		return lowest[i].Score < lowest[j].Score
	})
	lowest = lowest[:2]

	return Result{
		OverallScore:     overall,
		CategoryScores:   scores,
		LowestCategories: lowest,
		Answers:          answers,
		Timestamp:        now.UTC().Format(time.RFC3339),
	}
}

// FormatScore renders a score band label.
func FormatScore(score int) string {
	switch {
	case score >= 80:
		return "Strong"
	case score >= 60:
		return "Moderate"
	case score >= 40:
		return "Developing"
	default:
		return "Needs focus"
	}
}

// TextSummary renders the plain-text digest used in webhook payloads
// and exports.
func TextSummary(result Result) string {
	lowest1 := result.LowestCategories[0]
	lowest2 := result.LowestCategories[1]

	return fmt.Sprintf(`Evergreen Readiness: %d/100
Focus areas: %s (%d/100) and %s (%d/100)
Next: Review recommendations for %s and %s`,
		result.OverallScore,
		lowest1.CategoryName, lowest1.Score,
		lowest2.CategoryName, lowest2.Score,
		lowest1.CategoryName, lowest2.CategoryName)
}
