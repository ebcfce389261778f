package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeliveryStateProgression(t *testing.T) {
	assert.True(t, DeliverySent.AtLeast(DeliverySending))
	assert.True(t, DeliveryDelivered.AtLeast(DeliverySent))
	assert.True(t, DeliveryRead.AtLeast(DeliveryDelivered))
	assert.True(t, DeliveryRead.AtLeast(DeliveryRead))

	assert.False(t, DeliverySending.AtLeast(DeliverySent))
	assert.False(t, DeliveryDelivered.AtLeast(DeliveryRead))
}

func TestDeliveryStateUnknownRanksLowest(t *testing.T) {
	unknown := DeliveryState("BOGUS")
	assert.False(t, unknown.AtLeast(DeliverySending))
	assert.True(t, DeliverySending.AtLeast(unknown))
}

func TestHasReaction(t *testing.T) {
	msg := Message{Reactions: []string{"👍", "🎉"}}
	assert.True(t, msg.HasReaction("👍"))
	assert.False(t, msg.HasReaction("❤️"))

	empty := Message{}
	assert.False(t, empty.HasReaction("👍"))
}
