package usecases

import (
	"context"
	"testing"

	"geoassist/internal/entities"
	"geoassist/internal/infrastructure"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGateFixture(t *testing.T) (*AccessGate, *fakeStore, *infrastructure.Session) {
	t.Helper()
	store := newFakeStore()
	id, err := store.Create(context.Background(), "alice", "hash", "user")
	require.NoError(t, err)

	gate := NewAccessGate(store, 0, zerolog.Nop())
	sessions := infrastructure.NewSessionManager()
	session := sessions.Create("", id, "alice", false)
	return gate, store, session
}

func TestThirdSubmissionTripsThePaywall(t *testing.T) {
	gate, store, session := newGateFixture(t)
	ctx := context.Background()

	require.NoError(t, gate.Submit(ctx, session))
	require.NoError(t, gate.Submit(ctx, session))
	assert.Equal(t, entities.StateActive, session.State)

	err := gate.Submit(ctx, session)
	require.ErrorIs(t, err, entities.ErrQuotaExceeded)
	assert.Equal(t, entities.StatePaywallPending, session.State)

	// the crossing increment persists
	usage, err := store.GetUsage(ctx, session.UserID)
	require.NoError(t, err)
	assert.Equal(t, 3, usage)

	// further submissions stay paywalled and stop counting session-side
	err = gate.Submit(ctx, session)
	require.ErrorIs(t, err, entities.ErrQuotaExceeded)
	assert.Equal(t, 3, session.PromptCount)
}

func TestStoredUsageAlonePaywalls(t *testing.T) {
	gate, store, session := newGateFixture(t)
	ctx := context.Background()

	// a previous session already burned the quota
	store.setUsage(session.UserID, 3)

	err := gate.Submit(ctx, session)
	require.ErrorIs(t, err, entities.ErrQuotaExceeded)
	assert.Equal(t, entities.StatePaywallPending, session.State)
	assert.Equal(t, 1, session.PromptCount)
}

func TestSessionCountAlonePaywalls(t *testing.T) {
	gate, store, session := newGateFixture(t)
	ctx := context.Background()

	// stored usage stays low (say resets by an admin mid-session), the
	// session counter still trips the gate
	require.NoError(t, gate.Submit(ctx, session))
	require.NoError(t, gate.Submit(ctx, session))
	require.NoError(t, store.ResetUsage(ctx, session.UserID))

	err := gate.Submit(ctx, session)
	require.ErrorIs(t, err, entities.ErrQuotaExceeded)
	assert.Equal(t, 3, session.PromptCount)
}

func TestLogoutResetsSessionCounterOnly(t *testing.T) {
	gate, store, session := newGateFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, gate.Submit(ctx, session))
	}
	gate.Logout(session)
	assert.Equal(t, 0, session.PromptCount)
	assert.Equal(t, entities.StateLoggedOut, session.State)

	usage, err := store.GetUsage(ctx, session.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, usage)

	// a fresh login is still bounded by the persisted counter
	sessions := infrastructure.NewSessionManager()
	fresh := sessions.Create("", session.UserID, "alice", false)
	require.NoError(t, gate.Submit(ctx, fresh))
	err = gate.Submit(ctx, fresh)
	require.ErrorIs(t, err, entities.ErrQuotaExceeded)
}

func TestPaymentFlow(t *testing.T) {
	gate, store, session := newGateFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, gate.Submit(ctx, session))
	}
	require.ErrorIs(t, gate.Submit(ctx, session), entities.ErrQuotaExceeded)

	require.NoError(t, gate.InitiatePayment(session))
	assert.Equal(t, entities.StatePaymentForm, session.State)

	// initiating again is a no-op
	require.NoError(t, gate.InitiatePayment(session))

	err := gate.SubmitPayment(ctx, session, "mallory", "1234567890123456", "123", 9.99)
	require.ErrorIs(t, err, entities.ErrPaymentUsernameMismatch)
	assert.Equal(t, entities.StatePaymentForm, session.State)

	err = gate.SubmitPayment(ctx, session, "alice", "1234", "123", 9.99)
	require.ErrorIs(t, err, entities.ErrPaymentInvalidCard)

	err = gate.SubmitPayment(ctx, session, "alice", "1234567890123456", "12345", 9.99)
	require.ErrorIs(t, err, entities.ErrPaymentInvalidCard)

	require.NoError(t, gate.SubmitPayment(ctx, session, "alice", "1234567890123456", "123", 9.99))
	assert.Equal(t, entities.StatePostPayment, session.State)
	assert.True(t, session.PaymentMade)

	done, err := store.GetPaymentDone(ctx, session.UserID)
	require.NoError(t, err)
	assert.True(t, done)

	// access is restored and usage stops counting
	usageBefore, _ := store.GetUsage(ctx, session.UserID)
	require.NoError(t, gate.Submit(ctx, session))
	require.NoError(t, gate.Submit(ctx, session))
	usageAfter, _ := store.GetUsage(ctx, session.UserID)
	assert.Equal(t, usageBefore, usageAfter)
}

func TestPaymentIsIdempotent(t *testing.T) {
	gate, _, session := newGateFixture(t)
	ctx := context.Background()

	session.State = entities.StatePaywallPending
	require.NoError(t, gate.InitiatePayment(session))
	require.NoError(t, gate.SubmitPayment(ctx, session, "alice", "1234567890123456", "123", 9.99))

	// a second valid payment leaves state unchanged and does not error
	require.NoError(t, gate.SubmitPayment(ctx, session, "alice", "1234567890123456", "123", 9.99))
	assert.Equal(t, entities.StatePostPayment, session.State)
}

func TestInvalidCardAlwaysFails(t *testing.T) {
	tests := []struct {
		name string
		card string
		code string
	}{
		{name: "short card", card: "123456789012345", code: "123"},
		{name: "long card", card: "12345678901234567", code: "123"},
		{name: "short code", card: "1234567890123456", code: "12"},
		{name: "long code", card: "1234567890123456", code: "1234"},
		{name: "both empty", card: "", code: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, _, session := newGateFixture(t)
			session.State = entities.StatePaymentForm

			err := gate.SubmitPayment(context.Background(), session, "alice", tt.card, tt.code, 1)
			require.ErrorIs(t, err, entities.ErrPaymentInvalidCard)
			assert.Equal(t, entities.StatePaymentForm, session.State)
		})
	}
}

func TestInitiatePaymentRequiresPaywall(t *testing.T) {
	gate, _, session := newGateFixture(t)

	err := gate.InitiatePayment(session)
	require.ErrorIs(t, err, entities.ErrPaymentNotRequired)
	assert.Equal(t, entities.StateActive, session.State)
}

func TestSubmitConvergesWithStoredPayment(t *testing.T) {
	gate, store, session := newGateFixture(t)
	ctx := context.Background()

	// payment recorded from another session; this one still has the old flag
	require.NoError(t, store.SetPaymentDone(ctx, session.UserID))
	store.setUsage(session.UserID, 10)

	require.NoError(t, gate.Submit(ctx, session))
	assert.True(t, session.PaymentMade)
	assert.Equal(t, entities.StatePostPayment, session.State)
}

func TestGateStatus(t *testing.T) {
	gate, _, session := newGateFixture(t)
	ctx := context.Background()

	require.NoError(t, gate.Submit(ctx, session))
	status, err := gate.Status(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, entities.StateActive, status.State)
	assert.Equal(t, 1, status.Usage)
	assert.Equal(t, 1, status.PromptCount)
	assert.False(t, status.PaymentDone)
}
