package domain

import (
	"testing"
	"time"
)

func TestJobStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from JobStatus
		to   JobStatus
		want bool
	}{
		{name: "processing to completed", from: JobStatusProcessing, to: JobStatusCompleted, want: true},
		{name: "processing to expired", from: JobStatusProcessing, to: JobStatusExpired, want: true},
		{name: "processing to processing", from: JobStatusProcessing, to: JobStatusProcessing, want: false},
		{name: "completed stays terminal", from: JobStatusCompleted, to: JobStatusExpired, want: false},
		{name: "expired stays terminal", from: JobStatusExpired, to: JobStatusCompleted, want: false},
		{name: "unknown status moves nowhere", from: JobStatus("queued"), to: JobStatusCompleted, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Fatalf("CanTransition(%q -> %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestJobAge(t *testing.T) {
	created := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	job := &GenerationJob{CreatedAt: created}
	if got := job.Age(created.Add(39 * time.Minute)); got != 39*time.Minute {
		t.Fatalf("Age = %v, want 39m", got)
	}
}
