package ephemeral

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSessionIDRegeneratesPerLoad(t *testing.T) {
	t0 := time.UnixMilli(1700000000000)
	a := SessionID("user-1", t0)
	b := SessionID("user-1", t0.Add(time.Millisecond))
	if a == b {
		t.Fatalf("session ids should differ across loads: %q", a)
	}
	if !strings.HasPrefix(a, "user-1-") {
		t.Fatalf("session id %q missing user prefix", a)
	}
}

func TestJobStateAge(t *testing.T) {
	start := time.UnixMilli(1700000000000)
	state := &JobState{Generating: true, StartMillis: start.UnixMilli()}
	if got := state.Age(start.Add(600 * time.Second)); got != 600*time.Second {
		t.Fatalf("Age = %v, want 600s", got)
	}
}

func TestJobStateWireFormat(t *testing.T) {
	state := &JobState{
		Generating:  true,
		RequestID:   "req_1700000000000_ab12cd34e",
		Script:      "Hello",
		StartMillis: 1700000000000,
	}
	raw, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"isGenerating", "requestId", "script", "startTime"} {
		if _, ok := m[key]; !ok {
			t.Errorf("wire format missing %q: %s", key, raw)
		}
	}
	if _, ok := m["videoUrl"]; ok {
		t.Errorf("empty videoUrl should be omitted: %s", raw)
	}
}
