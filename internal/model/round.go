package model

import "time"

// Category groups questions; the catalog is served with remaining counts so
// pickers can avoid exhausted categories.
type Category struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	QuestionCount int    `json:"questionCount"`
}

type Question struct {
	ID          string `json:"id"`
	Number      int    `json:"number"`
	Text        string `json:"text"`
	Category    string `json:"category"`
	Points      int    `json:"points"`
	Consequence string `json:"consequence,omitempty"`
}

// Answer is immutable once submitted. SubmittedAt is the zero value for
// placeholder entries the server creates before a player has answered.
type Answer struct {
	ID           string    `json:"id"`
	Player       Player    `json:"player"`
	Text         string    `json:"text"`
	SubmittedAt  time.Time `json:"submittedAt"`
	PointsEarned int       `json:"pointsEarned"`
}

// Submitted reports whether this answer slot has actually been filled.
func (a *Answer) Submitted() bool {
	return !a.SubmittedAt.IsZero() || a.Text != ""
}

// Round is one question cycle: category pick through completion. A session
// has at most one non-completed round at any time.
type Round struct {
	ID        string    `json:"id"`
	Category  string    `json:"category,omitempty"`
	Question  *Question `json:"question,omitempty"`
	Picker    *Player   `json:"picker,omitempty"`
	Answers   []Answer  `json:"answers"`
	Completed bool      `json:"completed"`
}

// AnsweredCount counts answers that have actually been submitted, as opposed
// to placeholder slots.
func (r *Round) AnsweredCount() int {
	n := 0
	for i := range r.Answers {
		if r.Answers[i].Submitted() {
			n++
		}
	}
	return n
}

// AnswerBy returns the submitted answer for a player, if any.
func (r *Round) AnswerBy(playerID string) *Answer {
	for i := range r.Answers {
		if r.Answers[i].Player.ID == playerID && r.Answers[i].Submitted() {
			return &r.Answers[i]
		}
	}
	return nil
}

// AnswerComplete reports whether every participant has submitted.
func (r *Round) AnswerComplete(playerCount int) bool {
	return playerCount > 0 && r.AnsweredCount() >= playerCount
}
