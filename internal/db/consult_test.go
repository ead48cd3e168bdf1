package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronocheck/internal/core"
	"chronocheck/internal/llm"
	"chronocheck/pkg"
)

// hangupBackend cancels the request context while the question is being
// answered, as a client disconnect would.
type hangupBackend struct {
	llm.DemoBackend
	cancel context.CancelFunc
}

func (b hangupBackend) GeneralQuery(ctx context.Context, instruction string) (pkg.APIResult, error) {
	b.cancel()
	return pkg.APIResult{}, ctx.Err()
}

func TestSubmit_CountsQueryWhenCallerCancels(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consult := core.NewConsultService(repo, core.NewDispatcher(hangupBackend{cancel: cancel}, nil, nil), nil)
	snap, err := consult.StartSession(context.Background())
	require.NoError(t, err)

	res, err := consult.Submit(ctx, snap.ID, "qna", core.Values{"question": "Is 140/90 high?"})
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeFailed, res.Outcome.Kind())
	assert.Equal(t, 1, res.Session.QueryCount)
	assert.Empty(t, res.Session.History)

	stored, err := repo.Get(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.QueryCount())
}
