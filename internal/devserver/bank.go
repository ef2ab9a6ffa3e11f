package devserver

import "duetquiz/internal/model"

// defaultBank seeds a small question bank so games can run without any
// external data. Categories mirror the production catalog.
func defaultBank() map[string][]model.Question {
	return map[string][]model.Question{
		"spiritual": {
			{Number: 1, Text: "What gives your life the most meaning right now?", Points: 10, Consequence: "Hold hands for one minute."},
			{Number: 2, Text: "What do you believe happens after we die?", Points: 10, Consequence: "Share a childhood memory."},
		},
		"mental": {
			{Number: 21, Text: "What worry has been living rent-free in your head?", Points: 10, Consequence: "Give your partner a compliment."},
			{Number: 22, Text: "What is a belief you changed your mind about?", Points: 10, Consequence: "Describe your partner in three words."},
		},
		"physical": {
			{Number: 41, Text: "What small touch from your partner do you love most?", Points: 10, Consequence: "Thirty second hug."},
		},
		"truth-checks": {
			{Number: 61, Text: "What is one thing you pretend to like for your partner?", Points: 15, Consequence: "Answer a follow-up of their choice."},
		},
		"romantic": {
			{Number: 81, Text: "Describe your perfect date with your partner.", Points: 10, Consequence: "Plan one for this month."},
			{Number: 82, Text: "When did you know you were in love?", Points: 10, Consequence: "Recreate your first date photo."},
		},
		"creative": {
			{Number: 161, Text: "Invent a holiday the two of you would celebrate.", Points: 10, Consequence: "Draw your partner in one minute."},
		},
	}
}

func categoryName(id string) string {
	switch id {
	case "truth-checks":
		return "Truth Checks"
	case "spiritual":
		return "Spiritual"
	case "mental":
		return "Mental"
	case "physical":
		return "Physical"
	case "romantic":
		return "Romantic"
	case "creative":
		return "Creative"
	}
	return id
}
