package core

import (
	"fmt"
	"time"

	"chronocheck/pkg"
)

// HistoryCapacity bounds the per-session question history.
const HistoryCapacity = 5

// Session is the state of one consultation session: query count,
// cumulative savings, recent history and the selected workflow. It is only
// changed through RecordQuery, AppendHistory, RecordSavings and
// SelectWorkflow.
type Session struct {
	id         string
	current    WorkflowID
	queryCount int
	savings    int64
	history    []pkg.HistoryEntry // most recent first
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSession starts a session on the dashboard with zero counters.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{id: id, current: Dashboard, createdAt: now, updatedAt: now}
}

// RestoreSession rebuilds a session from a stored snapshot, rejecting
// snapshots that break the session invariants.
func RestoreSession(snap pkg.SessionSnapshot) (*Session, error) {
	current, err := ParseWorkflow(snap.CurrentWorkflow)
	if err != nil {
		return nil, err
	}
	if snap.QueryCount < 0 || snap.CumulativeSavings < 0 {
		return nil, fmt.Errorf("session %s: negative counters", snap.ID)
	}
	if len(snap.History) > HistoryCapacity {
		return nil, fmt.Errorf("session %s: history holds %d entries, capacity is %d", snap.ID, len(snap.History), HistoryCapacity)
	}
	return &Session{
		id:         snap.ID,
		current:    current,
		queryCount: snap.QueryCount,
		savings:    snap.CumulativeSavings,
		history:    append([]pkg.HistoryEntry(nil), snap.History...),
		createdAt:  snap.CreatedAt,
		updatedAt:  snap.UpdatedAt,
	}, nil
}

// RecordQuery counts one submitted action, whatever its outcome.
func (s *Session) RecordQuery() {
	s.queryCount++
	s.touch()
}

// AppendHistory puts a pair at the head of the history and evicts the
// oldest entry beyond capacity.
func (s *Session) AppendHistory(question, answer string) {
	entry := pkg.HistoryEntry{Question: question, Answer: answer, AskedAt: time.Now().UTC()}
	s.history = append([]pkg.HistoryEntry{entry}, s.history...)
	if len(s.history) > HistoryCapacity {
		s.history = s.history[:HistoryCapacity]
	}
	s.touch()
}

// RecordSavings adds an extracted amount. It does nothing when the
// extractor found no match.
func (s *Session) RecordSavings(amount int64, ok bool) {
	if !ok || amount <= 0 {
		return
	}
	s.savings += amount
	s.touch()
}

// SelectWorkflow moves the session to another navigation state.
func (s *Session) SelectWorkflow(id WorkflowID) error {
	if _, err := ParseWorkflow(string(id)); err != nil {
		return err
	}
	s.current = id
	s.touch()
	return nil
}

func (s *Session) touch() { s.updatedAt = time.Now().UTC() }

func (s *Session) ID() string                  { return s.id }
func (s *Session) CurrentWorkflow() WorkflowID { return s.current }
func (s *Session) QueryCount() int             { return s.queryCount }
func (s *Session) CumulativeSavings() int64    { return s.savings }
func (s *Session) UpdatedAt() time.Time        { return s.updatedAt }

// History returns the stored pairs, most recent first.
func (s *Session) History() []pkg.HistoryEntry {
	return append([]pkg.HistoryEntry(nil), s.history...)
}

// Snapshot copies the session for display or storage.
func (s *Session) Snapshot() pkg.SessionSnapshot {
	history := s.History()
	if history == nil {
		history = []pkg.HistoryEntry{}
	}
	previews := make([]pkg.HistoryPreview, len(history))
	for i, entry := range history {
		previews[i].Question, previews[i].Answer = entry.Preview()
	}
	return pkg.SessionSnapshot{
		ID:                s.id,
		CurrentWorkflow:   string(s.current),
		QueryCount:        s.queryCount,
		CumulativeSavings: s.savings,
		History:           history,
		Previews:          previews,
		CreatedAt:         s.createdAt,
		UpdatedAt:         s.updatedAt,
	}
}
