package questions

import (
	"encoding/json"
	"interviewhub-complete/ai"
	"interviewhub-complete/core"
	"interviewhub-complete/stores"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// AssistantUserID marks chat messages written by the AI assistant.
const AssistantUserID = "AI"

// HandleGenerate produces an interview question for a role and difficulty.
// The static bank answers when no AI backend is configured.
func HandleGenerate(client *ai.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Role       string `json:"role"`
			Difficulty string `json:"difficulty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if body.Difficulty == "" {
			body.Difficulty = "medium"
		}

		render.JSON(w, r, client.GenerateQuestion(r.Context(), body.Role, body.Difficulty))
	}
}

// HandleAssess evaluates a candidate answer against its question.
func HandleAssess(client *ai.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if strings.TrimSpace(body.Question) == "" || strings.TrimSpace(body.Answer) == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Question and answer are required"})
			return
		}

		render.JSON(w, r, client.AssessAnswer(r.Context(), body.Question, body.Answer))
	}
}

// HandleAssist answers a free-form prompt inside an interview room and
// appends the reply to the room's chat history as the AI assistant.
func HandleAssist(client *ai.Client, store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		interviewID := chi.URLParam(r, "id")
		if _, err := store.FindInterviewID(r.Context(), interviewID); err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Interview not found"})
			return
		}

		var body struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if strings.TrimSpace(body.Prompt) == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Prompt is required"})
			return
		}

		reply := client.Answer(r.Context(), body.Prompt)
		message := &core.Message{
			InterviewID: interviewID,
			UserID:      AssistantUserID,
			UserName:    "AI Assistant",
			Content:     reply,
		}
		id, err := store.AppendMessage(r.Context(), message)
		if err != nil {
			logrus.WithError(err).WithField("interview_id", interviewID).Error("Failed to store assistant reply")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to store assistant reply"})
			return
		}
		message.ID = id

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, message)
	}
}
