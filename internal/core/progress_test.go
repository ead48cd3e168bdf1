package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronocheck/pkg"
)

func TestStreamProgress(t *testing.T) {
	steps := []string{"Reading bill items...", "Calculating overcharge totals...", "Generating dispute recommendations..."}

	var events []pkg.ProgressEvent
	for ev := range StreamProgress(context.Background(), steps, time.Millisecond) {
		events = append(events, ev)
	}

	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Step)
		assert.Equal(t, 3, ev.Total)
		assert.Equal(t, steps[i], ev.Label)
		assert.Equal(t, i == 2, ev.Done)
	}
}

func TestStreamProgress_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := StreamProgress(ctx, []string{"a", "b", "c"}, time.Hour)

	first, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, "a", first.Label)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "stream should close once cancelled")
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close")
	}
}

func TestStreamProgress_NoSteps(t *testing.T) {
	_, ok := <-StreamProgress(context.Background(), nil, time.Millisecond)
	assert.False(t, ok)
}
