package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronos-lab/internal/domain"
)

func createTestAggregate(personaID string, returnPct float64) *domain.PersonaAggregate {
	return &domain.PersonaAggregate{
		RunID:                  "run-1",
		PersonaID:              personaID,
		FinalValue:             1000000 * (1 + returnPct/100),
		ReturnPct:              returnPct,
		BuyCount:               12,
		SellCount:              7,
		HoldCount:              72,
		MaxDrawdown:            8.4,
		DailyVolatility:        1.9,
		BestDayPct:             5.2,
		WorstDayPct:            -4.8,
		MaxConsecutiveLossDays: 4,
		BaselineReturnPct:      6.0,
		BeatBaseline:           returnPct > 6.0,
	}
}

func TestAggregateStore_UpsertAndGetByRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAggregateStore(conn)

	require.NoError(t, store.Upsert(ctx, createTestAggregate("guardian", 2.0)))
	require.NoError(t, store.Upsert(ctx, createTestAggregate("degen", 15.0)))
	require.NoError(t, store.Upsert(ctx, createTestAggregate("quant", 8.0)))

	retrieved, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, retrieved, 3)

	// Ranked by return
	assert.Equal(t, "degen", retrieved[0].PersonaID)
	assert.Equal(t, "quant", retrieved[1].PersonaID)
	assert.Equal(t, "guardian", retrieved[2].PersonaID)

	assert.Equal(t, 12, retrieved[0].BuyCount)
	assert.Equal(t, 4, retrieved[0].MaxConsecutiveLossDays)
	assert.True(t, retrieved[0].BeatBaseline)
	assert.False(t, retrieved[2].BeatBaseline)
	assert.InDelta(t, 8.4, retrieved[0].MaxDrawdown, 1e-9)
}

func TestAggregateStore_EmptyRun(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAggregateStore(conn)

	retrieved, err := store.GetByRun(ctx, "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, retrieved)
}
