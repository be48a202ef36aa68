package ai

import (
	_ "embed"
	"encoding/json"
	"log"
	"math/rand"
	"strings"
)

//go:embed bank.json
var bankData []byte

// questionBank maps a role to its canned questions. Loaded once at startup;
// the file is part of the binary so this cannot fail at runtime.
var questionBank map[string][]Question

func init() {
	if err := json.Unmarshal(bankData, &questionBank); err != nil {
		log.Fatalf("failed to load embedded question bank: %v", err)
	}
}

// bankQuestion picks a question for the role and difficulty from the static
// bank. Unknown roles use the general set; when no question matches the
// difficulty the whole role set is eligible.
func bankQuestion(role, difficulty string) *Question {
	questions, ok := questionBank[normalizeRole(role)]
	if !ok || len(questions) == 0 {
		questions = questionBank["general"]
	}

	matching := make([]Question, 0, len(questions))
	for _, question := range questions {
		if strings.EqualFold(question.Difficulty, difficulty) {
			matching = append(matching, question)
		}
	}
	if len(matching) == 0 {
		matching = questions
	}

	picked := matching[rand.Intn(len(matching))]
	picked.Source = "bank"
	return &picked
}

func normalizeRole(role string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(role)), " ", "_")
}
