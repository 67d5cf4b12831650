package ephemeral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const jobKeyPrefix = "clipstudio:job:"

// JobState is the session-scoped record of one in-flight generation job. It
// exists for UI continuity only; when Generating is true it is a claim that
// a matching durable job exists, and that claim must be reconciled against
// the durable store, never trusted blindly.
type JobState struct {
	Generating bool   `json:"isGenerating"`
	RequestID  string `json:"requestId"`
	Script     string `json:"script"`
	VideoURL   string `json:"videoUrl,omitempty"`
	// StartMillis is the submission wall-clock time in Unix milliseconds.
	StartMillis int64 `json:"startTime"`
}

// StartTime returns the submission time.
func (s *JobState) StartTime() time.Time {
	return time.UnixMilli(s.StartMillis)
}

// Age returns how long the job has been in flight.
func (s *JobState) Age(now time.Time) time.Duration {
	return now.Sub(s.StartTime())
}

// SessionID derives a tab-scoped session identifier from the user and the
// load time. It is regenerated on every load and must not be used as a
// stable device identifier.
func SessionID(userID string, now time.Time) string {
	return fmt.Sprintf("%s-%d", userID, now.UnixMilli())
}

// Store keeps per-user ephemeral job state in Redis with a TTL, standing in
// for the tab-local storage a browser client would use.
type Store struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewStore creates a Store. Records expire after ttl unless refreshed.
func NewStore(rc *redis.Client, ttl time.Duration) *Store {
	return &Store{rc: rc, ttl: ttl}
}

func jobKey(userID string) string {
	return jobKeyPrefix + userID
}

// JobState returns the user's in-flight job record, or nil when absent.
func (s *Store) JobState(ctx context.Context, userID string) (*JobState, error) {
	raw, err := s.rc.Get(ctx, jobKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("ephemeral: get job state: %w", err)
	}
	var state JobState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("ephemeral: decode job state: %w", err)
	}
	return &state, nil
}

// SaveJobState writes the user's in-flight job record, refreshing its TTL.
func (s *Store) SaveJobState(ctx context.Context, userID string, state *JobState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("ephemeral: encode job state: %w", err)
	}
	if err := s.rc.Set(ctx, jobKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("ephemeral: set job state: %w", err)
	}
	return nil
}

// ClearJobState deletes the user's in-flight job record. Deleting an absent
// record is not an error.
func (s *Store) ClearJobState(ctx context.Context, userID string) error {
	if err := s.rc.Del(ctx, jobKey(userID)).Err(); err != nil {
		return fmt.Errorf("ephemeral: clear job state: %w", err)
	}
	return nil
}
