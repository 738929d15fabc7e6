package infrastructure

import (
	"testing"

	"geoassist/internal/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManagerCreateGeneratesID(t *testing.T) {
	sm := NewSessionManager()

	s := sm.Create("", 1, "alice", false)
	require.NotEmpty(t, s.ID)
	assert.Equal(t, entities.StateActive, s.State)
	assert.Equal(t, "alice", s.Username)
	assert.False(t, s.PaymentMade)

	other := sm.Create("", 2, "bob", true)
	assert.NotEqual(t, s.ID, other.ID)
	assert.True(t, other.PaymentMade)
}

func TestSessionManagerExplicitIDReplaces(t *testing.T) {
	sm := NewSessionManager()

	first := sm.Create("tg:42", 1, "alice", false)
	first.PromptCount = 2

	second := sm.Create("tg:42", 1, "alice", false)
	assert.Same(t, second, sm.Get("tg:42"))
	assert.Zero(t, second.PromptCount)
}

func TestSessionManagerDelete(t *testing.T) {
	sm := NewSessionManager()
	s := sm.Create("", 1, "alice", false)

	sm.Delete(s.ID)
	assert.Nil(t, sm.Get(s.ID))
	assert.Nil(t, sm.Get("missing"))
}
