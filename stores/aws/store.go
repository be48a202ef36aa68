package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"interviewhub-complete/core"
	"io"
	"log"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
)

// s3Store keeps each entity as one JSON object: users/<id>.json,
// interviews/<id>.json and messages/<interview_id>/<id>.json. Lookups that
// are not by id list the prefix and scan, mirroring the filesystem backend.
type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates a new S3-based store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

func (s *s3Store) putJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %v", key, err)
	}
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %v", key, err)
	}
	return nil
}

var errObjectNotFound = errors.New("object not found")

func getJSON[T any](ctx context.Context, s *s3Store, key string) (*T, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, errObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %v", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %v", key, err)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal object %s: %v", key, err)
	}
	return &value, nil
}

func listJSON[T any](ctx context.Context, s *s3Store, prefix string) ([]*T, error) {
	output, err := s.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %s: %v", prefix, err)
	}

	values := make([]*T, 0, len(output.Contents))
	for _, object := range output.Contents {
		value, err := getJSON[T](ctx, s, *object.Key)
		if err != nil {
			log.Printf("warn: failed to load object %s: %v", *object.Key, err)
			continue
		}
		values = append(values, value)
	}
	return values, nil
}

// UserStore implementation

func (s *s3Store) userKey(id string) string {
	return "users/" + id + ".json"
}

func (s *s3Store) CreateUser(ctx context.Context, user *core.User) (string, error) {
	if _, err := s.FindUserByEmail(ctx, user.Email); err == nil {
		return "", fmt.Errorf("user with email %s already exists", user.Email)
	}

	id := ulid.Make().String()
	stored := *user
	stored.ID = id
	stored.CreatedAt = time.Now()
	if err := s.putJSON(ctx, s.userKey(id), &stored); err != nil {
		return "", err
	}
	return id, nil
}

func (s *s3Store) FindUserByEmail(ctx context.Context, email string) (*core.User, error) {
	users, err := listJSON[core.User](ctx, s, "users/")
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

func (s *s3Store) FindUserBySubject(ctx context.Context, subject string) (*core.User, error) {
	users, err := listJSON[core.User](ctx, s, "users/")
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

func (s *s3Store) interviewKey(id string) string {
	return "interviews/" + id + ".json"
}

func (s *s3Store) CreateInterview(ctx context.Context, interview *core.Interview) (string, error) {
	if _, err := s.FindInterviewKey(ctx, interview.Key); err == nil {
		return "", fmt.Errorf("interview key %s already exists", interview.Key)
	}

	id := ulid.Make().String()
	stored := *interview
	stored.ID = id
	stored.CreatedAt = time.Now()
	if err := s.putJSON(ctx, s.interviewKey(id), &stored); err != nil {
		return "", err
	}
	return id, nil
}

func (s *s3Store) FindInterviewID(ctx context.Context, id string) (*core.Interview, error) {
	interview, err := getJSON[core.Interview](ctx, s, s.interviewKey(id))
	if err != nil {
		if errors.Is(err, errObjectNotFound) {
			return nil, fmt.Errorf("interview with id %s not found", id)
		}
		return nil, err
	}
	return interview, nil
}

func (s *s3Store) FindInterviewKey(ctx context.Context, key string) (*core.Interview, error) {
	interviews, err := listJSON[core.Interview](ctx, s, "interviews/")
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

func (s *s3Store) ListInterviewsForUser(ctx context.Context, userID string) ([]*core.Interview, error) {
	interviews, err := listJSON[core.Interview](ctx, s, "interviews/")
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

func (s *s3Store) AssignInterviewee(ctx context.Context, key, userID string) (*core.Interview, error) {
	interview, err := s.FindInterviewKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if interview.IntervieweeID != "" {
		return nil, fmt.Errorf("interview %s already has an interviewee", key)
	}

	interview.IntervieweeID = userID
	interview.Status = core.InterviewStatusScheduled
	if err := s.putJSON(ctx, s.interviewKey(interview.ID), interview); err != nil {
		return nil, err
	}
	return interview, nil
}

func (s *s3Store) SetInterviewStatus(ctx context.Context, id, status string) error {
	interview, err := s.FindInterviewID(ctx, id)
	if err != nil {
		return err
	}
	interview.Status = status
	return s.putJSON(ctx, s.interviewKey(id), interview)
}

func (s *s3Store) ExpireStaleInterviews(ctx context.Context, cutoff time.Time) (int, error) {
	interviews, err := listJSON[core.Interview](ctx, s, "interviews/")
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, interview := range interviews {
		if interview.Status != core.InterviewStatusWaiting || !interview.CreatedAt.Before(cutoff) {
			continue
		}
		interview.Status = core.InterviewStatusExpired
		if err := s.putJSON(ctx, s.interviewKey(interview.ID), interview); err != nil {
			log.Printf("warn: failed to expire interview %s: %v", interview.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

// MessageStore implementation

func (s *s3Store) AppendMessage(ctx context.Context, message *core.Message) (string, error) {
	id := ulid.Make().String()
	stored := *message
	stored.ID = id
	stored.CreatedAt = time.Now()

	key := "messages/" + message.InterviewID + "/" + id + ".json"
	if err := s.putJSON(ctx, key, &stored); err != nil {
		return "", err
	}
	return id, nil
}

func (s *s3Store) ListMessagesForInterview(ctx context.Context, interviewID string) ([]*core.Message, error) {
	messages, err := listJSON[core.Message](ctx, s, "messages/"+interviewID+"/")
	if err != nil {
		return nil, err
	}
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ID < messages[j].ID
	})
	return messages, nil
}
