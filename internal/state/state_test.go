package state

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *bool:
			*p = r.vals[i].(bool)
		case *string:
			*p = r.vals[i].(string)
		case *int64:
			*p = r.vals[i].(int64)
		}
	}
	return nil
}

// fakeQuerier returns one canned row for every QueryRow call.
type fakeQuerier struct {
	row fakeRow
}

func (q fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (q fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (q fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.row
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("present", func(t *testing.T) {
		r := NewRepository(fakeQuerier{row: fakeRow{vals: []any{"http://rewards.local"}}})
		value, ok, err := r.Get(ctx, KeyRewardSystem)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "http://rewards.local", value)
	})

	t.Run("absent is not an error", func(t *testing.T) {
		r := NewRepository(fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})
		value, ok, err := r.Get(ctx, KeyOwner)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, value)
	})
}

func TestExists(t *testing.T) {
	ctx := context.Background()

	r := NewRepository(fakeQuerier{row: fakeRow{vals: []any{true}}})
	ok, err := r.Exists(ctx, KeyInitialized)
	require.NoError(t, err)
	assert.True(t, ok)

	r = NewRepository(fakeQuerier{row: fakeRow{vals: []any{false}}})
	ok, err = r.Exists(ctx, KeyInitialized)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNextGameID(t *testing.T) {
	// The upsert-returning statement yields the stored counter value; the
	// very first allocation is 1.
	r := NewRepository(fakeQuerier{row: fakeRow{vals: []any{int64(1)}}})
	id, err := r.NextGameID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}
