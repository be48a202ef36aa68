package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(serverURL string) *Client {
	return &Client{
		apiKey:     "test-key",
		baseURL:    serverURL,
		model:      "test-model",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func completionServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Missing authorization header")
		}
		json.NewEncoder(w).Encode(chatCompletionResponse{
			Choices: []chatCompletionChoice{{Message: chatMessage{Role: "assistant", Content: reply}}},
		})
	}))
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding prose", `Here you go: {"a":1} hope it helps`, `{"a":1}`},
		{"whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSON(tc.in); got != tc.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestGenerateQuestionFromModel(t *testing.T) {
	server := completionServer(t, "```json\n{\"question\":\"Explain goroutines.\",\"expected_topics\":[\"scheduling\"],\"difficulty\":\"medium\",\"ideal_answer_points\":[\"lightweight threads\"]}\n```")
	defer server.Close()

	question := newTestClient(server.URL).GenerateQuestion(context.Background(), "backend", "medium")
	if question.Question != "Explain goroutines." {
		t.Errorf("Unexpected question %q", question.Question)
	}
	if question.Source != "ai" {
		t.Errorf("Expected source ai, got %q", question.Source)
	}
}

func TestGenerateQuestionFallsBackToBank(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	// Shorten the retry loop; the default delay makes this test slow.
	question := client.GenerateQuestion(contextWithShortDeadline(t), "backend", "medium")
	if question == nil {
		t.Fatal("Expected a bank question")
	}
	if question.Source != "bank" {
		t.Errorf("Expected source bank, got %q", question.Source)
	}
}

func TestGenerateQuestionDisabledClientUsesBank(t *testing.T) {
	client := &Client{httpClient: http.DefaultClient}
	question := client.GenerateQuestion(context.Background(), "frontend", "easy")
	if question == nil || question.Source != "bank" {
		t.Fatalf("Expected a bank question, got %+v", question)
	}
	if question.Question == "" {
		t.Error("Bank question must not be empty")
	}
}

func TestBankQuestionUnknownRoleFallsBackToGeneral(t *testing.T) {
	question := bankQuestion("underwater basket weaving", "medium")
	if question == nil || question.Question == "" {
		t.Fatalf("Expected a general question, got %+v", question)
	}
	if question.Source != "bank" {
		t.Errorf("Expected source bank, got %q", question.Source)
	}
}

func TestBankQuestionMatchesDifficulty(t *testing.T) {
	for i := 0; i < 20; i++ {
		question := bankQuestion("backend", "hard")
		if !strings.EqualFold(question.Difficulty, "hard") {
			t.Fatalf("Expected a hard question, got %q", question.Difficulty)
		}
	}
}

func TestAssessAnswerFromModel(t *testing.T) {
	server := completionServer(t, `{"score":85,"strengths":["clear"],"improvements":["examples"],"feedback":"Solid answer."}`)
	defer server.Close()

	assessment := newTestClient(server.URL).AssessAnswer(context.Background(), "What is a mutex?", "A lock.")
	if assessment.Score != 85 {
		t.Errorf("Expected score 85, got %v", assessment.Score)
	}
	if assessment.Feedback != "Solid answer." {
		t.Errorf("Unexpected feedback %q", assessment.Feedback)
	}
}

func TestAssessAnswerFillsDefaults(t *testing.T) {
	server := completionServer(t, `{"score":250}`)
	defer server.Close()

	assessment := newTestClient(server.URL).AssessAnswer(context.Background(), "q", "a")
	if assessment.Score != 70 {
		t.Errorf("Out-of-range score should reset to 70, got %v", assessment.Score)
	}
	if len(assessment.Strengths) == 0 || len(assessment.Improvements) == 0 || assessment.Feedback == "" {
		t.Errorf("Expected defaults to be filled, got %+v", assessment)
	}
}

func TestAssessAnswerDisabledClientUsesDefault(t *testing.T) {
	client := &Client{httpClient: http.DefaultClient}
	assessment := client.AssessAnswer(context.Background(), "q", "a")
	if assessment.Score != 70 {
		t.Errorf("Expected default score 70, got %v", assessment.Score)
	}
	if len(assessment.Strengths) != 3 || len(assessment.Improvements) != 3 {
		t.Errorf("Unexpected default assessment %+v", assessment)
	}
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(chatCompletionResponse{
			Choices: []chatCompletionChoice{{Message: chatMessage{Role: "assistant", Content: "recovered"}}},
		})
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if text != "recovered" {
		t.Errorf("Expected recovered reply, got %q", text)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestCompleteHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL).complete(ctx, "system", "user")
	if err == nil {
		t.Fatal("Expected an error")
	}
	if err != context.DeadlineExceeded {
		t.Errorf("Expected context deadline error, got %v", err)
	}
}

func TestAnswerDisabledClientApologizes(t *testing.T) {
	client := &Client{httpClient: http.DefaultClient}
	reply := client.Answer(context.Background(), "What is Go?")
	if !strings.Contains(reply, "unavailable") {
		t.Errorf("Expected an unavailability notice, got %q", reply)
	}
}

func contextWithShortDeadline(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}
