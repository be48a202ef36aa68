package interviews

import (
	"encoding/json"
	"interviewhub-complete/core"
	"interviewhub-complete/handlers/auth"
	"interviewhub-complete/middleware"
	"interviewhub-complete/signaling"
	"interviewhub-complete/stores"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

func claimsFrom(r *http.Request) (*auth.AppClaims, bool) {
	claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims)
	return claims, ok
}

// HandleCreate schedules a new interview with the caller as interviewer. The
// interview key is the token the interviewer shares with the interviewee.
func HandleCreate(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		var body struct {
			InterviewKey string `json:"interviewKey"`
			Date         string `json:"date"`
			Time         string `json:"time"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}
		if strings.TrimSpace(body.InterviewKey) == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Interview key is required"})
			return
		}

		interview := &core.Interview{
			Key:           body.InterviewKey,
			InterviewerID: claims.Subject,
			Date:          body.Date,
			Time:          body.Time,
			Status:        core.InterviewStatusWaiting,
			MeetLink:      "https://meet.google.com/" + body.InterviewKey,
		}
		id, err := store.CreateInterview(r.Context(), interview)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":         err,
				"interview_key": body.InterviewKey,
			}).Warn("Failed to create interview")
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, map[string]string{"error": "Interview key already exists. Please choose a different key."})
			return
		}
		interview.ID = id

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, interview)
	}
}

// HandleJoin claims an existing interview for the caller as interviewee.
func HandleJoin(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		var body struct {
			InterviewKey string `json:"interviewKey"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid JSON in request body"})
			return
		}

		if _, err := store.FindInterviewKey(r.Context(), body.InterviewKey); err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Interview key not found. Please check the key."})
			return
		}

		interview, err := store.AssignInterviewee(r.Context(), body.InterviewKey, claims.Subject)
		if err != nil {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, map[string]string{"error": "This interview already has an interviewee."})
			return
		}

		render.JSON(w, r, interview)
	}
}

// HandleList returns every booking the caller takes part in, for the
// dashboard.
func HandleList(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		interviews, err := store.ListInterviewsForUser(r.Context(), claims.Subject)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.Subject,
			}).Error("Failed to list interviews")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list interviews"})
			return
		}
		if interviews == nil {
			interviews = []*core.Interview{}
		}
		render.JSON(w, r, interviews)
	}
}

// HandleGet returns the room payload for one booking: the interview, its
// chat history and whether the caller is the interviewer.
func HandleGet(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		id := chi.URLParam(r, "id")
		interview, err := store.FindInterviewID(r.Context(), id)
		if err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Interview not found"})
			return
		}
		if interview.InterviewerID != claims.Subject && interview.IntervieweeID != claims.Subject {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, map[string]string{"error": "Not a participant of this interview"})
			return
		}

		messages, err := store.ListMessagesForInterview(r.Context(), id)
		if err != nil {
			logrus.WithError(err).WithField("interview_id", id).Error("Failed to load messages")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to load messages"})
			return
		}

		render.JSON(w, r, map[string]any{
			"interview":     interview,
			"messages":      messages,
			"isInterviewer": interview.InterviewerID == claims.Subject,
		})
	}
}

// HandleStatus reports a booking's status together with the live participant
// count from the signaling registry. The interview id is the room id.
func HandleStatus(store stores.Store, registry *signaling.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		interview, err := store.FindInterviewID(r.Context(), id)
		if err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "Interview not found"})
			return
		}

		participants := 0
		if snap, ok := registry.SnapshotRoom(id); ok {
			participants = snap.ParticipantCount
		}

		render.JSON(w, r, map[string]any{
			"status":       interview.Status,
			"participants": participants,
		})
	}
}
