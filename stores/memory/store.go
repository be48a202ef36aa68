package memory

import (
	"context"
	"fmt"
	"interviewhub-complete/core"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// memStore implements the full store surface in process memory. Suited for
// development and tests; everything is lost on restart.
type memStore struct {
	mu sync.RWMutex

	users map[string]*core.User
	// interviews is keyed by id; interviewKeys maps the human-shared
	// interview key back to that id.
	interviews    map[string]*core.Interview
	interviewKeys map[string]string
	// messages is keyed by interview id, kept in append order.
	messages map[string][]*core.Message
}

// NewStore creates a new in-memory store.
func NewStore() *memStore {
	return &memStore{
		users:         make(map[string]*core.User),
		interviews:    make(map[string]*core.Interview),
		interviewKeys: make(map[string]string),
		messages:      make(map[string][]*core.Message),
	}
}

// UserStore implementation

func (s *memStore) CreateUser(ctx context.Context, user *core.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return "", fmt.Errorf("user with email %s already exists", user.Email)
		}
	}

	id := ulid.Make().String()
	stored := *user
	stored.ID = id
	stored.CreatedAt = time.Now()
	s.users[id] = &stored

	logrus.WithFields(logrus.Fields{
		"user_id": id,
		"email":   user.Email,
	}).Info("User created successfully")
	return id, nil
}

func (s *memStore) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user with email %s not found", email)
}

func (s *memStore) FindUserBySubject(ctx context.Context, subject string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Subject == subject {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user with subject %s not found", subject)
}

// InterviewStore implementation

func (s *memStore) CreateInterview(ctx context.Context, interview *core.Interview) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.interviewKeys[interview.Key]; taken {
		return "", fmt.Errorf("interview key %s already exists", interview.Key)
	}

	id := ulid.Make().String()
	stored := *interview
	stored.ID = id
	stored.CreatedAt = time.Now()
	s.interviews[id] = &stored
	s.interviewKeys[interview.Key] = id

	logrus.WithFields(logrus.Fields{
		"interview_id":  id,
		"interview_key": interview.Key,
	}).Info("Interview created successfully")
	return id, nil
}

func (s *memStore) FindInterviewID(ctx context.Context, id string) (*core.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	interview, ok := s.interviews[id]
	if !ok {
		return nil, fmt.Errorf("interview with id %s not found", id)
	}
	copied := *interview
	return &copied, nil
}

func (s *memStore) FindInterviewKey(ctx context.Context, key string) (*core.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.interviewKeys[key]
	if !ok {
		return nil, fmt.Errorf("interview with key %s not found", key)
	}
	copied := *s.interviews[id]
	return &copied, nil
}

func (s *memStore) ListInterviewsForUser(ctx context.Context, userID string) ([]*core.Interview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	interviews := make([]*core.Interview, 0)
	for _, interview := range s.interviews {
		if interview.InterviewerID == userID || interview.IntervieweeID == userID {
			copied := *interview
			interviews = append(interviews, &copied)
		}
	}
	sort.Slice(interviews, func(i, j int) bool {
		return interviews[i].CreatedAt.Before(interviews[j].CreatedAt)
	})
	return interviews, nil
}

func (s *memStore) AssignInterviewee(ctx context.Context, key, userID string) (*core.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.interviewKeys[key]
	if !ok {
		return nil, fmt.Errorf("interview with key %s not found", key)
	}
	interview := s.interviews[id]
	if interview.IntervieweeID != "" {
		return nil, fmt.Errorf("interview %s already has an interviewee", key)
	}

	interview.IntervieweeID = userID
	interview.Status = core.InterviewStatusScheduled
	copied := *interview
	return &copied, nil
}

func (s *memStore) SetInterviewStatus(ctx context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	interview, ok := s.interviews[id]
	if !ok {
		return fmt.Errorf("interview with id %s not found", id)
	}
	interview.Status = status
	return nil
}

func (s *memStore) ExpireStaleInterviews(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for _, interview := range s.interviews {
		if interview.Status == core.InterviewStatusWaiting && interview.CreatedAt.Before(cutoff) {
			interview.Status = core.InterviewStatusExpired
			expired++
		}
	}
	if expired > 0 {
		logrus.WithField("count", expired).Info("Expired stale interview bookings")
	}
	return expired, nil
}

// MessageStore implementation

func (s *memStore) AppendMessage(ctx context.Context, message *core.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ulid.Make().String()
	stored := *message
	stored.ID = id
	stored.CreatedAt = time.Now()
	s.messages[message.InterviewID] = append(s.messages[message.InterviewID], &stored)
	return id, nil
}

func (s *memStore) ListMessagesForInterview(ctx context.Context, interviewID string) ([]*core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.messages[interviewID]
	messages := make([]*core.Message, 0, len(history))
	for _, message := range history {
		copied := *message
		messages = append(messages, &copied)
	}
	return messages, nil
}
