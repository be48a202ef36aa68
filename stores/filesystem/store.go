package filesystem

import (
	"context"
	"encoding/json"
	"fmt"
	"interviewhub-complete/core"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// fsStore keeps each entity as one JSON file: users/<id>.json,
// interviews/<id>.json and messages/<interview_id>/<id>.json. Lookups that
// are not by id scan the directory, which is fine at the scale this backend
// is meant for.
type fsStore struct {
	basePath string
}

// NewStore creates a new filesystem-based store.
func NewStore(basePath string) *fsStore {
	for _, dir := range []string{"users", "interviews", "messages"} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			log.Fatalf("failed to create %s directory: %v", dir, err)
		}
	}
	return &fsStore{basePath: basePath}
}

func (s *fsStore) writeJSON(path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %v", path, err)
	}
	return os.WriteFile(path, data, 0644)
}

func readJSON[T any](path string) (*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %v", path, err)
	}
	return &value, nil
}

func scanDir[T any](dir string) ([]*T, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*T{}, nil
		}
		return nil, err
	}

	values := make([]*T, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		value, err := readJSON[T](filepath.Join(dir, file.Name()))
		if err != nil {
			logrus.WithError(err).WithField("file", file.Name()).Warn("Skipping unreadable record")
			continue
		}
		values = append(values, value)
	}
	return values, nil
}

// UserStore implementation

func (s *fsStore) userPath(id string) string {
	return filepath.Join(s.basePath, "users", id+".json")
}

func (s *fsStore) CreateUser(ctx context.Context, user *core.User) (string, error) {
	if _, err := s.FindUserByEmail(ctx, user.Email); err == nil {
		return "", fmt.Errorf("user with email %s already exists", user.Email)
	}

	id := ulid.Make().String()
	stored := *user
	stored.ID = id
	stored.CreatedAt = time.Now()
	if err := s.writeJSON(s.userPath(id), &stored); err != nil {
		logrus.WithError(err).Error("Failed to create user")
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": id,
		"email":   user.Email,
	}).Info("User created successfully")
	return id, nil
}

func (s *fsStore) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	users, err := scanDir[core.User](filepath.Join(s.basePath, "users"))
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user with email %s not found", email)
}

func (s *fsStore) FindUserBySubject(ctx context.Context, subject string) (*core.User, error) {
	users, err := scanDir[core.User](filepath.Join(s.basePath, "users"))
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if user.Subject == subject {
			return user, nil
		}
	}
	return nil, fmt.Errorf("user with subject %s not found", subject)
}

// InterviewStore implementation

func (s *fsStore) interviewPath(id string) string {
	return filepath.Join(s.basePath, "interviews", id+".json")
}

func (s *fsStore) CreateInterview(ctx context.Context, interview *core.Interview) (string, error) {
	if _, err := s.FindInterviewKey(ctx, interview.Key); err == nil {
		return "", fmt.Errorf("interview key %s already exists", interview.Key)
	}

	id := ulid.Make().String()
	stored := *interview
	stored.ID = id
	stored.CreatedAt = time.Now()
	if err := s.writeJSON(s.interviewPath(id), &stored); err != nil {
		logrus.WithError(err).Error("Failed to create interview")
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"interview_id":  id,
		"interview_key": interview.Key,
	}).Info("Interview created successfully")
	return id, nil
}

func (s *fsStore) FindInterviewID(ctx context.Context, id string) (*core.Interview, error) {
	interview, err := readJSON[core.Interview](s.interviewPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("interview with id %s not found", id)
		}
		return nil, err
	}
	return interview, nil
}

func (s *fsStore) FindInterviewKey(ctx context.Context, key string) (*core.Interview, error) {
	interviews, err := scanDir[core.Interview](filepath.Join(s.basePath, "interviews"))
	if err != nil {
		return nil, err
	}
	for _, interview := range interviews {
		if interview.Key == key {
			return interview, nil
		}
	}
	return nil, fmt.Errorf("interview with key %s not found", key)
}

func (s *fsStore) ListInterviewsForUser(ctx context.Context, userID string) ([]*core.Interview, error) {
	interviews, err := scanDir[core.Interview](filepath.Join(s.basePath, "interviews"))
	if err != nil {
		return nil, err
	}

	mine := make([]*core.Interview, 0, len(interviews))
	for _, interview := range interviews {
		if interview.InterviewerID == userID || interview.IntervieweeID == userID {
			mine = append(mine, interview)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		return mine[i].CreatedAt.Before(mine[j].CreatedAt)
	})
	return mine, nil
}

func (s *fsStore) AssignInterviewee(ctx context.Context, key, userID string) (*core.Interview, error) {
	interview, err := s.FindInterviewKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if interview.IntervieweeID != "" {
		return nil, fmt.Errorf("interview %s already has an interviewee", key)
	}

	interview.IntervieweeID = userID
	interview.Status = core.InterviewStatusScheduled
	if err := s.writeJSON(s.interviewPath(interview.ID), interview); err != nil {
		return nil, err
	}
	return interview, nil
}

func (s *fsStore) SetInterviewStatus(ctx context.Context, id, status string) error {
	interview, err := s.FindInterviewID(ctx, id)
	if err != nil {
		return err
	}
	interview.Status = status
	return s.writeJSON(s.interviewPath(id), interview)
}

func (s *fsStore) ExpireStaleInterviews(ctx context.Context, cutoff time.Time) (int, error) {
	interviews, err := scanDir[core.Interview](filepath.Join(s.basePath, "interviews"))
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, interview := range interviews {
		if interview.Status != core.InterviewStatusWaiting || !interview.CreatedAt.Before(cutoff) {
			continue
		}
		interview.Status = core.InterviewStatusExpired
		if err := s.writeJSON(s.interviewPath(interview.ID), interview); err != nil {
			logrus.WithError(err).WithField("interview_id", interview.ID).Warn("Failed to expire interview")
			continue
		}
		expired++
	}
	if expired > 0 {
		logrus.WithField("count", expired).Info("Expired stale interview bookings")
	}
	return expired, nil
}

// MessageStore implementation

func (s *fsStore) AppendMessage(ctx context.Context, message *core.Message) (string, error) {
	dir := filepath.Join(s.basePath, "messages", message.InterviewID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	id := ulid.Make().String()
	stored := *message
	stored.ID = id
	stored.CreatedAt = time.Now()
	if err := s.writeJSON(filepath.Join(dir, id+".json"), &stored); err != nil {
		return "", err
	}
	return id, nil
}

func (s *fsStore) ListMessagesForInterview(ctx context.Context, interviewID string) ([]*core.Message, error) {
	messages, err := scanDir[core.Message](filepath.Join(s.basePath, "messages", interviewID))
	if err != nil {
		return nil, err
	}
	// ULID file names sort by creation time, but scanDir order is not
	// guaranteed; sort explicitly.
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ID < messages[j].ID
	})
	return messages, nil
}
