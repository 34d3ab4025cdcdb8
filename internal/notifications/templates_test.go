package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnown(t *testing.T) {
	assert.True(t, TypeNewMessage.Known())
	assert.True(t, TypeNewBroadcast.Known())
	assert.True(t, TypePaidMessage.Known())
	assert.False(t, TypeCode(0).Known())
	assert.False(t, TypeCode(99).Known())
}

func TestBodyNamesTheActor(t *testing.T) {
	assert.Contains(t, TypeNewMessage.Body(7), "user 7")
	assert.Contains(t, TypeNewBroadcast.Body(7), "User 7")
	assert.Contains(t, TypePaidMessage.Body(7), "User 7")
	assert.Empty(t, TypeCode(99).Body(7))
}

func TestForSend(t *testing.T) {
	assert.Equal(t, TypeNewMessage, ForSend(0))
	assert.Equal(t, TypePaidMessage, ForSend(500))
}
