package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/fanzineflow/internal/models"
)

func TestAggregatorUnionsEntities(t *testing.T) {
	env := newTestEnv(0)
	env.seedFanzine("f1", models.PhaseAggregating)
	env.seedPage("f1", "p1", 1, models.PageComplete, "John Smith", "Jane Doe")
	env.seedPage("f1", "p2", 2, models.PageComplete, "Jane Doe", "John Smith")
	env.seedPage("f1", "p3", 3, models.PageComplete, "Fandom Press")

	require.NoError(t, env.aggregator.Run(context.Background(), "f1"))

	f, err := env.store.GetFanzine(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseComplete, f.ProcessingStatus)
	// Set union, not multiset: duplicates across pages collapse.
	assert.Equal(t, []string{"Fandom Press", "Jane Doe", "John Smith"}, f.DraftEntities)
	assert.False(t, f.AggregatedAt.IsZero())
}

func TestAggregatorOrderIndependent(t *testing.T) {
	buildEnv := func(reversed bool) []string {
		env := newTestEnv(0)
		env.seedFanzine("f1", models.PhaseAggregating)
		if reversed {
			env.seedPage("f1", "p1", 1, models.PageComplete, "B", "C")
			env.seedPage("f1", "p2", 2, models.PageComplete, "A", "B")
		} else {
			env.seedPage("f1", "p1", 1, models.PageComplete, "A", "B")
			env.seedPage("f1", "p2", 2, models.PageComplete, "B", "C")
		}
		require.NoError(t, env.aggregator.Run(context.Background(), "f1"))
		f, err := env.store.GetFanzine(context.Background(), "f1")
		require.NoError(t, err)
		return f.DraftEntities
	}

	assert.Equal(t, buildEnv(false), buildEnv(true))
}

func TestAggregatorNoPages(t *testing.T) {
	env := newTestEnv(0)
	env.seedFanzine("f1", models.PhaseAggregating)

	require.NoError(t, env.aggregator.Run(context.Background(), "f1"))

	f, err := env.store.GetFanzine(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseComplete, f.ProcessingStatus)
	assert.Empty(t, f.DraftEntities)
}
