package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableAdvance(t *testing.T) {
	table := NewTable()

	_, ok := table.Advance(7, func(s *Session) { t.Fatal("fn must not run without a session") })
	assert.False(t, ok)

	table.Begin(7)
	s, ok := table.Advance(7, func(s *Session) {
		s.FirstName = "Bob"
		s.Step = AwaitingLastName
	})
	assert.True(t, ok)
	assert.Equal(t, AwaitingLastName, s.Step)
	assert.True(t, table.Active(7))

	s, ok = table.Advance(7, func(s *Session) { s.Step = Complete })
	assert.True(t, ok)
	assert.Equal(t, "Bob", s.FirstName)
	assert.False(t, table.Active(7), "completed sessions leave the table")
}

func TestTableDiscard(t *testing.T) {
	table := NewTable()
	assert.False(t, table.Discard(1))

	table.Begin(1)
	table.Begin(2)
	assert.True(t, table.Discard(1))
	assert.Equal(t, 1, table.Len())
	assert.True(t, table.Active(2))
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "awaiting_first_name", AwaitingFirstName.String())
	assert.Equal(t, "complete", Complete.String())
	assert.Equal(t, "unknown", Step(0).String())
}
