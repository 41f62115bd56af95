package testutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/banshee-data/devsync/internal/stream"
)

func TestAssertHelpers_PassingPaths(t *testing.T) {
	t.Parallel()

	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	AssertNoError(t, nil)

	sentinel := errors.New("sentinel")
	AssertErrorIs(t, fmt.Errorf("wrapped: %w", sentinel), sentinel)
}

func TestNewTestRequest(t *testing.T) {
	t.Parallel()

	req := NewTestRequest(http.MethodPost, "/debug/hotplug")
	if req.Method != http.MethodPost {
		t.Errorf("method = %q, want POST", req.Method)
	}
	if req.URL.Path != "/debug/hotplug" {
		t.Errorf("path = %q", req.URL.Path)
	}
}

func TestNewTestRecorder(t *testing.T) {
	t.Parallel()

	rec := NewTestRecorder()
	if rec.Code != http.StatusOK {
		t.Errorf("initial code = %d, want 200", rec.Code)
	}
}

func TestProfiles(t *testing.T) {
	t.Parallel()

	ps := Profiles(10, stream.Depth, stream.Infrared, stream.Color)
	if len(ps) != 3 {
		t.Fatalf("got %d profiles, want 3", len(ps))
	}
	for i, want := range []stream.Type{stream.Depth, stream.Infrared, stream.Color} {
		if ps[i].UniqueID() != 10+i || ps[i].StreamType() != want {
			t.Errorf("profile %d = %v", i, ps[i])
		}
	}
}

func TestFrame(t *testing.T) {
	t.Parallel()

	p := Profiles(0, stream.Depth)[0]
	f := Frame(p, 12, 33.5)
	if f.Number != 12 || f.StreamID() != 0 {
		t.Errorf("frame = %v", f)
	}
	if got := f.Timestamp.Sub(Epoch); got != 33500*time.Microsecond {
		t.Errorf("timestamp offset = %v, want 33.5ms", got)
	}
}
