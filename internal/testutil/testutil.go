// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/banshee-data/devsync/internal/stream"
)

// Epoch is the device time origin used by frame fixtures.
var Epoch = time.Unix(1700000000, 0)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertErrorIs fails the test unless errors.Is(err, target).
func AssertErrorIs(t testing.TB, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// Profiles creates one 30 fps profile per type with consecutive ids starting
// at firstID.
func Profiles(firstID int, types ...stream.Type) []stream.Stream {
	out := make([]stream.Stream, 0, len(types))
	for i, t := range types {
		out = append(out, stream.NewProfileWithID(firstID+i, t, 0, 30))
	}
	return out
}

// Frame creates a frame on s with the given frame number and a device
// timestamp ms milliseconds after Epoch.
func Frame(s stream.Stream, number uint64, ms float64) *stream.Frame {
	ts := Epoch.Add(time.Duration(ms * float64(time.Millisecond)))
	return &stream.Frame{Stream: s, Number: number, Timestamp: ts, Arrival: ts}
}
