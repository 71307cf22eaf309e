package cart

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/foodhub-client/internal/notify"
	"github.com/xenking/foodhub-client/internal/storage/memory"
)

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := NewStore(memory.New(), notify.Discard, nil)
	src.AddItem(ctx, Item{ProductID: "m1", Name: "Burger", UnitPrice: decimal.RequireFromString("5.00"), ProviderID: "p1"}, 3)
	src.AddItem(ctx, Item{ProductID: "m2", Name: "Fries", UnitPrice: decimal.RequireFromString("2.50"), ProviderID: "p1"}, 2)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, src.Snapshot()))

	lines, err := Import(&buf)
	require.NoError(t, err)

	dst := NewStore(memory.New(), notify.Discard, nil)
	dst.Replace(ctx, lines)

	snap := dst.Snapshot()
	assert.Equal(t, 5, snap.Count)
	assert.True(t, decimal.RequireFromString("20.00").Equal(snap.Total), "total %s", snap.Total)
	require.Len(t, snap.Lines, 2)
	assert.Equal(t, "m1", snap.Lines[0].ID)
	assert.Equal(t, "m2", snap.Lines[1].ID)
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, Snapshot{}))

	lines, err := Import(&buf)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestImportRejects(t *testing.T) {
	_, err := Import(bytes.NewReader([]byte("not gzip")))
	require.Error(t, err)
}

func TestReplaceNormalizes(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	s := NewStore(kv, notify.Discard, nil)
	s.AddItem(ctx, Item{ProductID: "old", Name: "Old", UnitPrice: decimal.NewFromInt(1)}, 1)

	s.Replace(ctx, []Line{
		{ProductID: "m1", Name: "Burger", UnitPrice: decimal.NewFromInt(5), Quantity: 1},
		{ProductID: "m1", Name: "Burger", UnitPrice: decimal.NewFromInt(5), Quantity: 2},
		{ProductID: "m2", Name: "Zero", UnitPrice: decimal.NewFromInt(1), Quantity: 0},
	})

	snap := s.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.Lines[0].Quantity)

	reloaded := NewStore(kv, notify.Discard, nil)
	reloaded.Load(ctx)
	got := reloaded.Snapshot()
	assert.Equal(t, snap.Count, got.Count)
	assert.True(t, snap.Total.Equal(got.Total))
}
