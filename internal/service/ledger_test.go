package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/FocusGate/internal/domain"
)

func TestLedger_CheckAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.ledger.Grant(ctx, user, "WWW.YouTube.com", "s-1", "c-1", 10)
	require.NoError(t, err)
	assert.Equal(t, "youtube.com", u.Domain)

	f.clock.advance(90 * time.Second)
	access, err := f.ledger.CheckAccess(ctx, user, "youtube.com")
	require.NoError(t, err)
	require.True(t, access.IsUnlocked)
	assert.Equal(t, 510, access.RemainingSeconds)
	assert.Equal(t, 9, access.RemainingMinutes)
	assert.True(t, access.Unlock.WasUsed)
	first := *access.Unlock.FirstAccessedAt

	f.clock.advance(time.Minute)
	access, err = f.ledger.CheckAccess(ctx, user, "www.youtube.com")
	require.NoError(t, err)
	assert.Equal(t, first, *access.Unlock.FirstAccessedAt)
	assert.Equal(t, f.clock.now(), *access.Unlock.LastAccessedAt)

	access, err = f.ledger.CheckAccess(ctx, "someone-else", "youtube.com")
	require.NoError(t, err)
	assert.False(t, access.IsUnlocked)
}

func TestLedger_ExpiredIsNeverActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Grant(ctx, user, "reddit.com", "s-1", "c-1", 1)
	require.NoError(t, err)

	f.clock.advance(time.Minute)
	_, err = f.ledger.FindActive(ctx, user, "reddit.com")
	assertErrNotFound(t, err)

	active, err := f.ledger.ListActive(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestLedger_SweepIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Grant(ctx, user, "reddit.com", "s-1", "c-1", 5)
	require.NoError(t, err)
	f.clock.advance(6 * time.Minute)

	n, err := f.ledger.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = f.ledger.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestLedger_RevokeIsOneWay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.ledger.Grant(ctx, user, "reddit.com", "s-1", "c-1", 5)
	require.NoError(t, err)

	_, err = f.ledger.Revoke(ctx, "someone-else", u.ID, domain.RevokedByUser)
	assertCode(t, err, "NOT_FOUND")

	revoked, err := f.ledger.Revoke(ctx, user, u.ID, domain.RevokedByUser)
	require.NoError(t, err)
	assert.False(t, revoked.IsActive)
	revokedAt := *revoked.RevokedAt

	f.clock.advance(time.Minute)
	again, err := f.ledger.Revoke(ctx, user, u.ID, domain.RevokedByUser)
	require.NoError(t, err)
	assert.Equal(t, revokedAt, *again.RevokedAt)
	f.events.AssertNumberOfCalls(t, "PublishUnlockRevoked", 1)

	_, err = f.ledger.Revoke(ctx, user, "missing", domain.RevokedByUser)
	assertCode(t, err, "NOT_FOUND")
}

func TestLedger_GrantValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Grant(ctx, user, "", "s-1", "c-1", 5)
	assertCode(t, err, "INVALID_INPUT")

	_, err = f.ledger.Grant(ctx, user, "reddit.com", "s-1", "c-1", 0)
	assertCode(t, err, "INVALID_INPUT")
}

func TestLedger_RevokeSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.Grant(ctx, user, "reddit.com", "s-1", "c-1", 5)
	require.NoError(t, err)
	_, err = f.ledger.Grant(ctx, user, "x.com", "s-2", "c-2", 5)
	require.NoError(t, err)

	revoked, err := f.ledger.RevokeSession(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, revoked, 1)
	assert.Equal(t, "reddit.com", revoked[0].Domain)

	active, err := f.ledger.ListActive(ctx, user)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "x.com", active[0].Domain)
}

func TestLedger_RunSweeperStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.ledger.RunSweeper(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
