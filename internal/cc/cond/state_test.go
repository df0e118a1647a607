package cond

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleIfElse(t *testing.T) {
	var s Stack
	s.PushIf(false)
	assert.False(t, s.Emitting())

	assert.NoError(t, s.Else())
	assert.True(t, s.Emitting())

	assert.NoError(t, s.Endif())
	assert.True(t, s.Emitting())
	assert.NoError(t, s.Finish())
}

func TestElifChainTakesFirstTrueBranch(t *testing.T) {
	var s Stack
	s.PushIf(false)
	assert.False(t, s.Emitting())

	assert.NoError(t, s.Elif(false))
	assert.False(t, s.Emitting())

	assert.NoError(t, s.Elif(true))
	assert.True(t, s.Emitting())

	assert.NoError(t, s.Elif(true), "a later true branch must not re-activate once a branch was taken")
	assert.False(t, s.Emitting())

	assert.NoError(t, s.Else())
	assert.False(t, s.Emitting())
}

func TestNestedIfInsideDeadBranchStaysDead(t *testing.T) {
	var s Stack
	s.PushIf(false) // outer: dead
	s.PushIf(true)  // inner: predicate true but outer is dead
	assert.False(t, s.Emitting())
	assert.NoError(t, s.Endif())
	assert.False(t, s.Emitting())
	assert.NoError(t, s.Endif())
}

func TestDoubleElseIsAnError(t *testing.T) {
	var s Stack
	s.PushIf(true)
	assert.NoError(t, s.Else())
	assert.ErrorIs(t, s.Else(), ErrElseAfterElse)
}

func TestElifAfterElseIsAnError(t *testing.T) {
	var s Stack
	s.PushIf(false)
	assert.NoError(t, s.Else())
	assert.ErrorIs(t, s.Elif(true), ErrElifAfterElse)
}

func TestUnbalancedDirectivesReportErrors(t *testing.T) {
	var s Stack
	assert.ErrorIs(t, s.Endif(), ErrEndifWithoutIf)
	assert.ErrorIs(t, s.Else(), ErrElseWithoutIf)
	assert.ErrorIs(t, s.Elif(true), ErrElifWithoutIf)

	s.PushIf(true)
	assert.ErrorIs(t, s.Finish(), ErrUnterminatedBlock)
}

func TestUnterminatedBlockDetected(t *testing.T) {
	var s Stack
	s.PushIf(true)
	assert.ErrorIs(t, s.Finish(), ErrUnterminatedBlock)
}
