package core

import (
	"context"
	"time"
)

// Interview booking statuses. A booking starts out waiting for the
// interviewee to claim it by key, becomes scheduled once claimed, and is
// flipped to expired by the background sweep when it is never claimed.
const (
	InterviewStatusWaiting   = "waiting_for_interviewee"
	InterviewStatusScheduled = "scheduled"
	InterviewStatusExpired   = "expired"
)

type (
	// Interview is one scheduled mock-interview booking. Its ID doubles as
	// the signaling room identifier for the session.
	Interview struct {
		ID            string    `json:"id"`
		Key           string    `json:"interviewKey"`
		InterviewerID string    `json:"interviewerId"`
		IntervieweeID string    `json:"intervieweeId,omitempty"`
		Date          string    `json:"date"`
		Time          string    `json:"time"`
		Status        string    `json:"status"`
		MeetLink      string    `json:"meetLink"`
		CreatedAt     time.Time `json:"createdAt"`
	}

	// InterviewStore defines the persistence layer for bookings.
	InterviewStore interface {
		// CreateInterview stores a new booking and returns the assigned id.
		// The interview key must be unique across all bookings.
		CreateInterview(ctx context.Context, interview *Interview) (string, error)

		// FindInterviewID returns the booking with the given id.
		FindInterviewID(ctx context.Context, id string) (*Interview, error)

		// FindInterviewKey returns the booking registered under key.
		FindInterviewKey(ctx context.Context, key string) (*Interview, error)

		// ListInterviewsForUser returns every booking where the user is
		// interviewer or interviewee.
		ListInterviewsForUser(ctx context.Context, userID string) ([]*Interview, error)

		// AssignInterviewee claims the booking with the given key for userID
		// and moves it to the scheduled status. It fails when the key is
		// unknown or the booking already has an interviewee.
		AssignInterviewee(ctx context.Context, key, userID string) (*Interview, error)

		// SetInterviewStatus updates the status of a booking.
		SetInterviewStatus(ctx context.Context, id, status string) error

		// ExpireStaleInterviews flips unclaimed bookings created before cutoff
		// to the expired status and reports how many were affected.
		ExpireStaleInterviews(ctx context.Context, cutoff time.Time) (int, error)
	}
)
