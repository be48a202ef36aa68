package core

import (
	"context"
	"time"
)

type (
	// Message is one chat entry in an interview room. AI assistant replies
	// are stored as regular messages with a reserved user id.
	Message struct {
		ID          string    `json:"id"`
		InterviewID string    `json:"interviewId"`
		UserID      string    `json:"userId"`
		UserName    string    `json:"userName"`
		Content     string    `json:"content"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// MessageStore defines the persistence layer for room chat history.
	MessageStore interface {
		// AppendMessage stores a new message and returns the assigned id.
		AppendMessage(ctx context.Context, message *Message) (string, error)

		// ListMessagesForInterview returns the chat history of a booking in
		// chronological order.
		ListMessagesForInterview(ctx context.Context, interviewID string) ([]*Message, error)
	}
)
