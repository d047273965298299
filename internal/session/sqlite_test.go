package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumis-app/invoice-ocr/constants"
	"github.com/lumis-app/invoice-ocr/internal/entity"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &entity.Session{
		ID:           "ocr_sess_deadbeef",
		UserID:       42,
		AttemptCount: 2,
		MaxAttempts:  constants.MaxAttempts,
		State:        constants.SessionNeedsRetry,
		Missing:      []constants.FieldKey{constants.FieldTotal},
	}
	require.NoError(t, s.Put(ctx, sess, time.Minute))

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, 2, got.AttemptCount)
	assert.Equal(t, constants.SessionNeedsRetry, got.State)
	assert.Equal(t, []constants.FieldKey{constants.FieldTotal}, got.Missing)
}

func TestSQLiteStore_MissIsNilNil(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Get(context.Background(), "ocr_sess_absent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_ExpiryEnforcedOnRead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }

	sess := &entity.Session{ID: "ocr_sess_ttl", UserID: 1}
	require.NoError(t, s.Put(ctx, sess, 30*time.Minute))

	s.now = func() time.Time { return now.Add(29 * time.Minute) }
	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	s.now = func() time.Time { return now.Add(31 * time.Minute) }
	got, err = s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "an expired session must read as absent")
}

func TestSQLiteStore_PutRenewsTTL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }

	sess := &entity.Session{ID: "ocr_sess_renew", UserID: 1}
	require.NoError(t, s.Put(ctx, sess, 30*time.Minute))

	// A write 20 minutes in restarts the clock.
	s.now = func() time.Time { return now.Add(20 * time.Minute) }
	sess.AttemptCount = 2
	require.NoError(t, s.Put(ctx, sess, 30*time.Minute))

	s.now = func() time.Time { return now.Add(45 * time.Minute) }
	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.AttemptCount)
}

func TestSQLiteStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &entity.Session{ID: "ocr_sess_gone", UserID: 1}
	require.NoError(t, s.Put(ctx, sess, time.Minute))
	require.NoError(t, s.Delete(ctx, sess.ID))

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting twice is not an error.
	assert.NoError(t, s.Delete(ctx, sess.ID))
}
