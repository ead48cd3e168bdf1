package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"chronocheck/pkg"
)

// ErrSessionBusy is returned when a session already has a submission in
// flight. A session dispatches at most one backend call at a time.
var ErrSessionBusy = errors.New("session has a submission in progress")

// SessionPublisher is told about every saved session change. It is
// optional; the SQL store pairs it with Postgres NOTIFY.
type SessionPublisher interface {
	Notify(ctx context.Context, sessionID string) error
}

// Result is the completed handling of one submitted user action.
type Result struct {
	Workflow     WorkflowID
	Outcome      Outcome
	SavingsAdded int64
	Session      pkg.SessionSnapshot
}

// ConsultService orchestrates a submission: validate, build the
// instruction, dispatch once, interpret the reply and fold it into the
// session.
type ConsultService struct {
	Store      SessionStore
	Dispatcher *Dispatcher
	Savings    SavingsExtractor
	Publisher  SessionPublisher
	Logger     *slog.Logger

	inflight sync.Map
}

// NewConsultService constructs a ConsultService with the default savings
// extractor.
func NewConsultService(store SessionStore, dispatcher *Dispatcher, logger *slog.Logger) *ConsultService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsultService{
		Store:      store,
		Dispatcher: dispatcher,
		Savings:    DefaultSavingsExtractor(),
		Logger:     logger,
	}
}

// StartSession creates a zero-state session on the dashboard.
func (s *ConsultService) StartSession(ctx context.Context) (pkg.SessionSnapshot, error) {
	sess := NewSession(uuid.NewString())
	if err := s.Store.Create(ctx, sess); err != nil {
		return pkg.SessionSnapshot{}, fmt.Errorf("create session: %w", err)
	}
	s.Logger.Info("session started", slog.String("session_id", sess.ID()))
	return sess.Snapshot(), nil
}

// Session returns the current snapshot of a session.
func (s *ConsultService) Session(ctx context.Context, id string) (pkg.SessionSnapshot, error) {
	sess, err := s.Store.Get(ctx, id)
	if err != nil {
		return pkg.SessionSnapshot{}, err
	}
	return sess.Snapshot(), nil
}

// EndSession discards a session.
func (s *ConsultService) EndSession(ctx context.Context, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.Logger.Info("session ended", slog.String("session_id", id))
	return nil
}

// SelectWorkflow records an explicit navigation.
func (s *ConsultService) SelectWorkflow(ctx context.Context, id, workflow string) (pkg.SessionSnapshot, error) {
	target, err := ParseWorkflow(workflow)
	if err != nil {
		return pkg.SessionSnapshot{}, err
	}
	sess, err := s.Store.Get(ctx, id)
	if err != nil {
		return pkg.SessionSnapshot{}, err
	}
	if err := sess.SelectWorkflow(target); err != nil {
		return pkg.SessionSnapshot{}, err
	}
	if err := s.save(ctx, sess); err != nil {
		return pkg.SessionSnapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Submit handles one user action. Validation failures return a
// *ValidationError before anything is dispatched or counted. Backend
// failures are not errors: they come back as a Failed outcome.
func (s *ConsultService) Submit(ctx context.Context, sessionID, workflow string, values Values) (*Result, error) {
	if _, busy := s.inflight.LoadOrStore(sessionID, struct{}{}); busy {
		return nil, ErrSessionBusy
	}
	defer s.inflight.Delete(sessionID)

	sess, err := s.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	id := sess.CurrentWorkflow()
	if workflow != "" {
		if id, err = ParseWorkflow(workflow); err != nil {
			return nil, err
		}
	}
	def, err := Lookup(id)
	if err != nil {
		return nil, err
	}
	if err := Validate(id, values); err != nil {
		return nil, err
	}

	instruction, err := BuildInstruction(id, values)
	if err != nil {
		return nil, err
	}
	meta, err := MetaFor(id, values)
	if err != nil {
		return nil, err
	}

	raw := s.Dispatcher.Dispatch(ctx, id, instruction, meta)
	outcome := Interpret(raw)

	// The action has been dispatched, so it is counted even if the caller
	// has gone away.
	persist := context.WithoutCancel(ctx)

	// Navigation may have happened while the backend was working.
	sess, err = s.Store.Get(persist, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reload session after dispatch: %w", err)
	}
	res := &Result{Workflow: id, Outcome: outcome}
	sess.RecordQuery()
	if msg, ok := outcome.Message(); ok {
		if def.RecordsHistory {
			sess.AppendHistory(values.Trimmed(def.HistoryField), msg)
		}
		if def.TracksSavings && s.Savings != nil {
			amount, found := s.Savings.Extract(msg)
			sess.RecordSavings(amount, found)
			if found {
				res.SavingsAdded = amount
			}
		}
	}
	if err := s.save(persist, sess); err != nil {
		return nil, err
	}
	res.Session = sess.Snapshot()

	s.Logger.Info("submission handled",
		slog.String("session_id", sessionID),
		slog.String("workflow", string(id)),
		slog.String("outcome", string(outcome.Kind())),
		slog.Int64("savings_added", res.SavingsAdded),
		slog.Int("query_count", sess.QueryCount()),
	)
	return res, nil
}

func (s *ConsultService) save(ctx context.Context, sess *Session) error {
	if err := s.Store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if s.Publisher != nil {
		if err := s.Publisher.Notify(ctx, sess.ID()); err != nil {
			s.Logger.Warn("session notify failed", slog.String("session_id", sess.ID()), slog.String("error", err.Error()))
		}
	}
	return nil
}
