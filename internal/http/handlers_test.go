package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronocheck/internal/core"
	"chronocheck/internal/llm"
	"chronocheck/pkg"
)

func newTestServer(t *testing.T, watcher SessionWatcher) (*Server, *core.ConsultService) {
	t.Helper()
	consult := core.NewConsultService(core.NewMemoryStore(), core.NewDispatcher(llm.DemoBackend{}, nil, nil), nil)
	if n, ok := watcher.(*core.LocalNotifier); ok {
		consult.Publisher = n
	}
	return NewServer(consult, watcher, time.Millisecond, nil), consult
}

func do(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, srv http.Handler) pkg.SessionSnapshot {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap pkg.SessionSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestListWorkflows(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/workflows", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []pkg.WorkflowInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 6)
	assert.Equal(t, "qna", infos[0].ID)
	assert.Equal(t, "bill_auditor", infos[4].ID)
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	snap := createSession(t, srv)
	assert.Equal(t, "dashboard", snap.CurrentWorkflow)
	assert.Zero(t, snap.QueryCount)

	rec := do(t, srv, http.MethodGet, "/api/sessions/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPut, "/api/sessions/"+snap.ID+"/workflow", pkg.SelectWorkflowRequest{Workflow: "bill_auditor"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated pkg.SessionSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "bill_auditor", updated.CurrentWorkflow)

	rec = do(t, srv, http.MethodPut, "/api/sessions/"+snap.ID+"/workflow", pkg.SelectWorkflowRequest{Workflow: "billing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/api/sessions/"+snap.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+snap.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmit_BillAudit(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	snap := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+snap.ID+"/submit", pkg.SubmitRequest{
		Workflow: "bill_auditor",
		Fields:   map[string]any{"file_name": "bill.pdf", "city": "Mumbai"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp pkg.SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bill_auditor", resp.Workflow)
	assert.Equal(t, "demo_delivered", resp.Outcome.Kind)
	assert.True(t, resp.Outcome.Demo)
	assert.Equal(t, llm.SampleAuditReport, resp.Outcome.Message)
	assert.Equal(t, int64(5025), resp.SavingsAdded)
	assert.Equal(t, int64(5025), resp.Session.CumulativeSavings)
	assert.Equal(t, 1, resp.Session.QueryCount)
}

func TestSubmit_QuestionServesHistoryPreview(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	snap := createSession(t, srv)

	question := strings.Repeat("Why is my HbA1c high? ", 6)
	rec := do(t, srv, http.MethodPost, "/api/sessions/"+snap.ID+"/submit", pkg.SubmitRequest{
		Workflow: "qna",
		Fields:   map[string]any{"question": question},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after pkg.SessionSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	require.Len(t, after.History, 1)
	require.Len(t, after.Previews, 1)
	assert.Equal(t, strings.TrimSpace(question), after.History[0].Question)
	assert.Equal(t, []rune(question)[:80], []rune(after.Previews[0].Question)[:80])
	assert.True(t, strings.HasSuffix(after.Previews[0].Question, "..."))
}

func TestSubmit_ValidationError(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	snap := createSession(t, srv)

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+snap.ID+"/submit", pkg.SubmitRequest{
		Workflow: "qna",
		Fields:   map[string]any{"question": " "},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "question", body.Field)

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+snap.ID, nil)
	var after pkg.SessionSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Zero(t, after.QueryCount)
}

func TestSubmit_BadBodyAndUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	snap := createSession(t, srv)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+snap.ID+"/submit", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/sessions/nope/submit", pkg.SubmitRequest{
		Workflow: "qna",
		Fields:   map[string]any{"question": "q"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProgressStream(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/workflows/facility_finder/progress?location=Nagpur", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := readEvents(t, bufio.NewScanner(rec.Body), -1)
	require.Len(t, events, 4)
	var first pkg.ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(events[0].data), &first))
	assert.Equal(t, "Searching hospitals in Nagpur...", first.Label)
	var last pkg.ProgressEvent
	require.NoError(t, json.Unmarshal([]byte(events[3].data), &last))
	assert.True(t, last.Done)

	rec = do(t, srv, http.MethodGet, "/api/workflows/dashboard/progress", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionStream_SingleSnapshotWithoutWatcher(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	snap := createSession(t, srv)

	rec := do(t, srv, http.MethodGet, "/api/sessions/"+snap.ID+"/stream", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := readEvents(t, bufio.NewScanner(rec.Body), -1)
	require.Len(t, events, 1)
	assert.Equal(t, "session_update", events[0].name)
}

func TestSessionStream_PushesChanges(t *testing.T) {
	notifier := core.NewLocalNotifier()
	srv, consult := newTestServer(t, notifier)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	snap, err := consult.StartSession(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/sessions/"+snap.ID+"/stream", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	scanner := bufio.NewScanner(resp.Body)
	initial := readEvents(t, scanner, 1)
	require.Len(t, initial, 1)

	_, err = consult.SelectWorkflow(context.Background(), snap.ID, "symptom_checker")
	require.NoError(t, err)

	update := readEvents(t, scanner, 1)
	require.Len(t, update, 1)
	assert.Equal(t, "session_update", update[0].name)
	var got pkg.SessionSnapshot
	require.NoError(t, json.Unmarshal([]byte(update[0].data), &got))
	assert.Equal(t, "symptom_checker", got.CurrentWorkflow)

	require.NoError(t, consult.EndSession(context.Background(), snap.ID))
	require.NoError(t, notifier.Notify(context.Background(), snap.ID))
	end := readEvents(t, scanner, 1)
	require.Len(t, end, 1)
	assert.Equal(t, "session_end", end[0].name)
}

type sseEvent struct {
	name string
	data string
}

// readEvents parses server-sent events until limit events are read or the
// stream ends. A negative limit reads to the end.
func readEvents(t *testing.T, scanner *bufio.Scanner, limit int) []sseEvent {
	t.Helper()
	var (
		events  []sseEvent
		current sseEvent
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			current.data = strings.TrimPrefix(line, "data: ")
		case line == "" && current.name != "":
			events = append(events, current)
			current = sseEvent{}
			if limit >= 0 && len(events) == limit {
				return events
			}
		}
	}
	return events
}
