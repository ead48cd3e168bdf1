package testutil

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/dnaeon/go-vcr.v2/cassette"
	"gopkg.in/dnaeon/go-vcr.v2/recorder"
)

// NewVCRRecorder replays testdata/fixtures/<cassetteName>.yaml. Set
// VCR_MODE=record to capture a fresh cassette against the live backend.
func NewVCRRecorder(t *testing.T, cassetteName string) *recorder.Recorder {
	t.Helper()

	mode := recorder.ModeReplaying
	if os.Getenv("VCR_MODE") == "record" {
		mode = recorder.ModeRecording
	}

	r, err := recorder.NewAsMode(filepath.Join("testdata", "fixtures", cassetteName), mode, nil)
	if err != nil {
		t.Fatalf("failed to create VCR recorder: %v", err)
	}

	// Prompts vary between runs; match on method and URL only.
	r.SetMatcher(func(r *http.Request, i cassette.Request) bool {
		return r.Method == i.Method && r.URL.String() == i.URL
	})
	// Never write credentials into a cassette.
	r.AddFilter(func(i *cassette.Interaction) error {
		delete(i.Request.Headers, "Authorization")
		return nil
	})

	t.Cleanup(func() {
		if err := r.Stop(); err != nil {
			t.Errorf("failed to stop VCR recorder: %v", err)
		}
	})
	return r
}

// VCRHTTPClient returns an HTTP client that goes through the recorder.
func VCRHTTPClient(r *recorder.Recorder) *http.Client {
	return &http.Client{Transport: r}
}
