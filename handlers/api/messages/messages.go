package messages

import (
	"encoding/json"
	"interviewhub-complete/core"
	"interviewhub-complete/handlers/auth"
	"interviewhub-complete/middleware"
	"interviewhub-complete/stores"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// HandleAppend stores a chat message in an interview room on behalf of the
// caller.
func HandleAppend(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		interviewID := chi.URLParam(r, "id")
		if _, err := store.FindInterviewID(r.Context(), interviewID); err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Interview not found"})
			return
		}

		var body struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if strings.TrimSpace(body.Content) == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Message content is required"})
			return
		}

		message := &core.Message{
			InterviewID: interviewID,
			UserID:      claims.Subject,
			UserName:    claims.Name,
			Content:     body.Content,
		}
		id, err := store.AppendMessage(r.Context(), message)
		if err != nil {
			logrus.WithError(err).WithField("interview_id", interviewID).Error("Failed to append message")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to store message"})
			return
		}
		message.ID = id

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, message)
	}
}

// HandleList returns the chat history of an interview room in chronological
// order.
func HandleList(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		interviewID := chi.URLParam(r, "id")
		messages, err := store.ListMessagesForInterview(r.Context(), interviewID)
		if err != nil {
			logrus.WithError(err).WithField("interview_id", interviewID).Error("Failed to list messages")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list messages"})
			return
		}
		if messages == nil {
			messages = []*core.Message{}
		}
		render.JSON(w, r, messages)
	}
}
