package filesystem

import (
	"context"
	"interviewhub-complete/core"
	"testing"
	"time"
)

func TestUserPersistsAcrossStores(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store := NewStore(dir)
	id, err := store.CreateUser(ctx, &core.User{
		Subject: "password:alice@example.com",
		Email:   "alice@example.com",
		Name:    "alice",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := store.CreateUser(ctx, &core.User{Subject: "other", Email: "alice@example.com"}); err == nil {
		t.Error("Expected duplicate email to be rejected")
	}

	// A fresh store over the same directory sees the same data.
	reopened := NewStore(dir)
	user, err := reopened.FindUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail failed: %v", err)
	}
	if user.ID != id || user.Name != "alice" {
		t.Errorf("Unexpected user %+v", user)
	}
	if _, err := reopened.FindUserBySubject(ctx, "password:alice@example.com"); err != nil {
		t.Errorf("FindUserBySubject failed: %v", err)
	}
}

func TestInterviewClaimAndExpiry(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	id, err := store.CreateInterview(ctx, &core.Interview{
		Key:           "room-key",
		InterviewerID: "user-1",
		Status:        core.InterviewStatusWaiting,
	})
	if err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}
	if _, err := store.CreateInterview(ctx, &core.Interview{Key: "room-key"}); err == nil {
		t.Error("Expected duplicate key to be rejected")
	}

	joined, err := store.AssignInterviewee(ctx, "room-key", "user-2")
	if err != nil {
		t.Fatalf("AssignInterviewee failed: %v", err)
	}
	if joined.Status != core.InterviewStatusScheduled {
		t.Errorf("Expected status %q, got %q", core.InterviewStatusScheduled, joined.Status)
	}
	if _, err := store.AssignInterviewee(ctx, "room-key", "user-3"); err == nil {
		t.Error("Expected second claim to be rejected")
	}

	staleID, err := store.CreateInterview(ctx, &core.Interview{Key: "stale", Status: core.InterviewStatusWaiting})
	if err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}
	expired, err := store.ExpireStaleInterviews(ctx, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("ExpireStaleInterviews failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("Expected 1 expired interview, got %d", expired)
	}
	stale, err := store.FindInterviewID(ctx, staleID)
	if err != nil {
		t.Fatalf("FindInterviewID failed: %v", err)
	}
	if stale.Status != core.InterviewStatusExpired {
		t.Errorf("Expected expired status, got %q", stale.Status)
	}
	claimed, err := store.FindInterviewID(ctx, id)
	if err != nil {
		t.Fatalf("FindInterviewID failed: %v", err)
	}
	if claimed.Status != core.InterviewStatusScheduled {
		t.Errorf("Expected claimed interview untouched, got %q", claimed.Status)
	}
}

func TestListInterviewsForUser(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	if _, err := store.CreateInterview(ctx, &core.Interview{Key: "mine", InterviewerID: "user-1", Status: core.InterviewStatusWaiting}); err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}
	if _, err := store.CreateInterview(ctx, &core.Interview{Key: "other", InterviewerID: "user-9", Status: core.InterviewStatusWaiting}); err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}

	interviews, err := store.ListInterviewsForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListInterviewsForUser failed: %v", err)
	}
	if len(interviews) != 1 || interviews[0].Key != "mine" {
		t.Errorf("Unexpected interviews %+v", interviews)
	}
}

func TestMessageHistoryOrder(t *testing.T) {
	store := NewStore(t.TempDir())
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		if _, err := store.AppendMessage(ctx, &core.Message{
			InterviewID: "interview-1",
			UserID:      "user-1",
			Content:     content,
		}); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	messages, err := store.ListMessagesForInterview(ctx, "interview-1")
	if err != nil {
		t.Fatalf("ListMessagesForInterview failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}
	if messages[0].Content != "first" || messages[2].Content != "third" {
		t.Errorf("Messages out of order: %q .. %q", messages[0].Content, messages[2].Content)
	}

	none, err := store.ListMessagesForInterview(ctx, "never-used")
	if err != nil {
		t.Fatalf("ListMessagesForInterview failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("Expected empty history, got %d", len(none))
	}
}
