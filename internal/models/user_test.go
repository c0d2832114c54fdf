package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTakesPartInRounds(t *testing.T) {
	awake := User{Role: RoleMember}
	assert.True(t, awake.TakesPartInRounds())

	asleep := User{Role: RoleMember, Sleeping: true}
	assert.False(t, asleep.TakesPartInRounds())
}
