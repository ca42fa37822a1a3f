package collections

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContactRecord(t *testing.T) {
	t.Run("creates audit entry", func(t *testing.T) {
		manager := uuid.New()
		record, err := NewContactRecord(uuid.New(), uuid.New(), &manager, ContactCall, OutcomePromise, "will pay friday")

		require.NoError(t, err)
		assert.Equal(t, ContactCall, record.Type)
		assert.Equal(t, OutcomePromise, record.Outcome)
		require.NotNil(t, record.ManagerID)
		assert.Equal(t, manager, *record.ManagerID)
	})

	t.Run("rejects empty alert", func(t *testing.T) {
		_, err := NewContactRecord(uuid.Nil, uuid.New(), nil, ContactCall, OutcomeNoAnswer, "")
		assert.Error(t, err)
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		_, err := NewContactRecord(uuid.New(), uuid.New(), nil, ContactType("FAX"), OutcomeNoAnswer, "")
		assert.Error(t, err)
	})

	t.Run("rejects invalid outcome", func(t *testing.T) {
		_, err := NewContactRecord(uuid.New(), uuid.New(), nil, ContactCall, ContactOutcome("MAYBE"), "")
		assert.Error(t, err)
	})
}

func TestNewAutomaticNote(t *testing.T) {
	record, err := NewAutomaticNote(uuid.New(), uuid.New(), "tier escalation applied")

	require.NoError(t, err)
	assert.Equal(t, ContactInternalNote, record.Type)
	assert.Equal(t, OutcomeSucceeded, record.Outcome)
	assert.Nil(t, record.ManagerID)
}
