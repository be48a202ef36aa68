package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

const systemPrompt = `You are an expert AI technical interviewer and coding assistant.
Provide detailed assessments and constructive feedback for interview responses.
Always respond in English and maintain a professional tone.
IMPORTANT: Always respond with clean, properly formatted JSON. Do not include any explanations outside of the JSON structure.`

const assistantPrompt = `You are a helpful technical interview assistant embedded in a live interview room.
Answer questions from the participants concisely and accurately.
Always respond in English and maintain a professional tone.`

const questionTemplate = `Generate a technical interview question following these specifications:

Role: %s
Level: %s

IMPORTANT: Respond ONLY with a valid JSON object. Do not include any explanations outside the JSON.
Provide your response in this exact JSON format:
{
    "question": "<detailed technical interview question>",
    "expected_topics": ["<topic 1>", "<topic 2>", "<topic 3>"],
    "difficulty": "<easy/medium/hard>",
    "ideal_answer_points": ["<key point 1>", "<key point 2>", "<key point 3>"]
}`

const assessmentTemplate = `You are an experienced technical interviewer evaluating a candidate's response.
Analyze the following response carefully and provide a detailed assessment.

Question: %s
Candidate's Answer: %s

IMPORTANT: Respond ONLY with a valid JSON object. Do not include any explanations outside the JSON.
Provide your assessment in this exact JSON format:
{
    "score": <number 0-100>,
    "strengths": ["<specific strength 1>", "<specific strength 2>", "<specific strength 3>"],
    "improvements": ["<specific improvement 1>", "<specific improvement 2>", "<specific improvement 3>"],
    "feedback": "<2-3 sentences of constructive overall feedback>"
}`

type (
	// Question is one generated or bank interview question.
	Question struct {
		Question          string   `json:"question"`
		ExpectedTopics    []string `json:"expected_topics,omitempty"`
		Difficulty        string   `json:"difficulty"`
		IdealAnswerPoints []string `json:"ideal_answer_points,omitempty"`
		Source            string   `json:"source,omitempty"` // "ai" or "bank"
	}

	// Assessment is the structured evaluation of a candidate answer.
	Assessment struct {
		Score        float64  `json:"score"`
		Strengths    []string `json:"strengths"`
		Improvements []string `json:"improvements"`
		Feedback     string   `json:"feedback"`
	}
)

// GenerateQuestion asks the model for a question for the given role and
// difficulty, falling back to the embedded bank when the client is disabled
// or the call keeps failing.
func (c *Client) GenerateQuestion(ctx context.Context, role, difficulty string) *Question {
	if c.Enabled() {
		text, err := c.complete(ctx, systemPrompt, fmt.Sprintf(questionTemplate, role, difficulty))
		if err == nil {
			var question Question
			if err := json.Unmarshal([]byte(extractJSON(text)), &question); err == nil && question.Question != "" {
				if question.Difficulty == "" {
					question.Difficulty = difficulty
				}
				question.Source = "ai"
				return &question
			}
			logrus.WithField("error", err).Warn("Discarding unparseable question response")
		}
	}
	return bankQuestion(role, difficulty)
}

// AssessAnswer evaluates a candidate answer. Missing or malformed fields in
// the model reply are replaced with neutral defaults so the caller always
// gets a complete assessment; a disabled or failing client yields the
// default assessment outright.
func (c *Client) AssessAnswer(ctx context.Context, question, answer string) *Assessment {
	if c.Enabled() {
		text, err := c.complete(ctx, systemPrompt, fmt.Sprintf(assessmentTemplate, question, answer))
		if err == nil {
			var assessment Assessment
			if err := json.Unmarshal([]byte(extractJSON(text)), &assessment); err == nil {
				return fillAssessmentDefaults(&assessment)
			}
			logrus.WithField("error", err).Warn("Discarding unparseable assessment response")
		}
	}
	return defaultAssessment()
}

// Answer replies to a free-form prompt from an interview room. When the
// client is disabled or the call keeps failing a short apology is returned
// so the chat history still records the exchange.
func (c *Client) Answer(ctx context.Context, prompt string) string {
	if c.Enabled() {
		text, err := c.complete(ctx, assistantPrompt, prompt)
		if err == nil {
			return text
		}
		logrus.WithField("error", err).Warn("Assistant reply failed")
	}
	return "The AI assistant is unavailable right now. Please try again later."
}

func fillAssessmentDefaults(assessment *Assessment) *Assessment {
	if assessment.Score <= 0 || assessment.Score > 100 {
		assessment.Score = 70
	}
	if len(assessment.Strengths) == 0 {
		assessment.Strengths = []string{"Basic understanding shown"}
	}
	if len(assessment.Improvements) == 0 {
		assessment.Improvements = []string{"Add more detail"}
	}
	if assessment.Feedback == "" {
		assessment.Feedback = "Answer shows basic understanding but needs more depth."
	}
	return assessment
}

func defaultAssessment() *Assessment {
	return &Assessment{
		Score:        70,
		Strengths:    []string{"Basic understanding shown", "Attempted to answer", "Shows potential"},
		Improvements: []string{"Add more detail", "Include examples", "Better structure"},
		Feedback:     "Answer shows basic understanding but needs more depth.",
	}
}
