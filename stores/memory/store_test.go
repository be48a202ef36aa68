package memory

import (
	"context"
	"interviewhub-complete/core"
	"testing"
	"time"
)

func TestUserLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	id, err := store.CreateUser(ctx, &core.User{
		Subject: "password:alice@example.com",
		Email:   "alice@example.com",
		Name:    "alice",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if id == "" {
		t.Error("Expected a generated user id")
	}

	byEmail, err := store.FindUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail failed: %v", err)
	}
	if byEmail.ID != id || byEmail.Name != "alice" {
		t.Errorf("Unexpected user %+v", byEmail)
	}

	bySubject, err := store.FindUserBySubject(ctx, "password:alice@example.com")
	if err != nil {
		t.Fatalf("FindUserBySubject failed: %v", err)
	}
	if bySubject.ID != id {
		t.Errorf("Expected user %s, got %s", id, bySubject.ID)
	}

	if _, err := store.FindUserByEmail(ctx, "nobody@example.com"); err == nil {
		t.Error("Expected an error for an unknown email")
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, &core.User{Subject: "a", Email: "dup@example.com"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := store.CreateUser(ctx, &core.User{Subject: "b", Email: "dup@example.com"}); err == nil {
		t.Error("Expected duplicate email to be rejected")
	}
}

func TestInterviewLifecycle(t *testing.T) {
	store := NewStore()
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

	byKey, err := store.FindInterviewKey(ctx, "room-key")
	if err != nil {
		t.Fatalf("FindInterviewKey failed: %v", err)
	}
	if byKey.ID != id {
		t.Errorf("Expected interview %s, got %s", id, byKey.ID)
	}

	joined, err := store.AssignInterviewee(ctx, "room-key", "user-2")
	if err != nil {
		t.Fatalf("AssignInterviewee failed: %v", err)
	}
	if joined.IntervieweeID != "user-2" {
		t.Errorf("Expected interviewee user-2, got %q", joined.IntervieweeID)
	}
	if joined.Status != core.InterviewStatusScheduled {
		t.Errorf("Expected status %q, got %q", core.InterviewStatusScheduled, joined.Status)
	}

	if _, err := store.AssignInterviewee(ctx, "room-key", "user-3"); err == nil {
		t.Error("Expected second claim to be rejected")
	}

	byID, err := store.FindInterviewID(ctx, id)
	if err != nil {
		t.Fatalf("FindInterviewID failed: %v", err)
	}
	if byID.IntervieweeID != "user-2" {
		t.Errorf("Claim not persisted, got %+v", byID)
	}
}

func TestListInterviewsForUser(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, key := range []string{"first", "second"} {
		if _, err := store.CreateInterview(ctx, &core.Interview{Key: key, InterviewerID: "user-1"}); err != nil {
			t.Fatalf("CreateInterview failed: %v", err)
		}
	}
	if _, err := store.CreateInterview(ctx, &core.Interview{Key: "other", InterviewerID: "user-9"}); err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}

	interviews, err := store.ListInterviewsForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListInterviewsForUser failed: %v", err)
	}
	if len(interviews) != 2 {
		t.Fatalf("Expected 2 interviews, got %d", len(interviews))
	}
	if interviews[0].Key != "first" || interviews[1].Key != "second" {
		t.Errorf("Expected creation order, got %s then %s", interviews[0].Key, interviews[1].Key)
	}
}

func TestExpireStaleInterviews(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	staleID, err := store.CreateInterview(ctx, &core.Interview{Key: "stale", Status: core.InterviewStatusWaiting})
	if err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}
	claimedID, err := store.CreateInterview(ctx, &core.Interview{Key: "claimed", Status: core.InterviewStatusWaiting})
	if err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}
	if _, err := store.AssignInterviewee(ctx, "claimed", "user-2"); err != nil {
		t.Fatalf("AssignInterviewee failed: %v", err)
	}

	expired, err := store.ExpireStaleInterviews(ctx, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("ExpireStaleInterviews failed: %v", err)
	}
	if expired != 1 {
		t.Errorf("Expected 1 expired interview, got %d", expired)
	}

	stale, _ := store.FindInterviewID(ctx, staleID)
	if stale.Status != core.InterviewStatusExpired {
		t.Errorf("Expected stale interview to be expired, got %q", stale.Status)
	}
	claimed, _ := store.FindInterviewID(ctx, claimedID)
	if claimed.Status != core.InterviewStatusScheduled {
		t.Errorf("Expected claimed interview untouched, got %q", claimed.Status)
	}

	// A second sweep finds nothing new.
	expired, err = store.ExpireStaleInterviews(ctx, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("ExpireStaleInterviews failed: %v", err)
	}
	if expired != 0 {
		t.Errorf("Expected no further expirations, got %d", expired)
	}
}

func TestMessageHistoryKeepsOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, content := range []string{"hello", "hi there", "shall we start?"} {
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
	if messages[0].Content != "hello" || messages[2].Content != "shall we start?" {
		t.Errorf("Messages out of order: %q .. %q", messages[0].Content, messages[2].Content)
	}

	other, err := store.ListMessagesForInterview(ctx, "interview-2")
	if err != nil {
		t.Fatalf("ListMessagesForInterview failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected empty history for another interview, got %d", len(other))
	}
}
