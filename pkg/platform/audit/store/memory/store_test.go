package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "greenlight/pkg/platform/audit"
)

func TestInMemoryStore_ListBySubject(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, audit.Event{Subject: "a", Outcome: audit.OutcomeValid}))
	require.NoError(t, store.Append(ctx, audit.Event{Subject: "b"}))
	require.NoError(t, store.Append(ctx, audit.Event{Subject: "a", Outcome: audit.OutcomeInvalid}))

	events, err := store.ListBySubject(ctx, "a")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.OutcomeInvalid, events[1].Outcome)
	assert.Len(t, store.All(), 3)
}
