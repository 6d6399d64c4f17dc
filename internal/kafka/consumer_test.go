package kafka

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/models"
)

func TestProcessMessageDecodesEvent(t *testing.T) {
	event := &models.BookingEvent{
		Type:      "booking.created",
		BookingID: "64a0c2f4b1e1a2b3c4d5e6f7",
		Booking: &models.Booking{
			UserID:     "customer-1",
			ProviderID: "provider-1",
			EventType:  "wedding",
		},
		Timestamp: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	var received *models.BookingEvent
	handler := &BookingConsumerHandler{Handler: func(e *models.BookingEvent) error {
		received = e
		return nil
	}}

	require.NoError(t, handler.ProcessMessage(payload))
	require.NotNil(t, received)
	assert.Equal(t, "booking.created", received.Type)
	assert.Equal(t, "provider-1", received.Booking.ProviderID)
}

func TestProcessMessageRejectsBadPayload(t *testing.T) {
	handler := &BookingConsumerHandler{Handler: func(*models.BookingEvent) error { return nil }}
	err := handler.ProcessMessage([]byte("{not json"))
	assert.Error(t, err)
}

func TestProcessMessagePropagatesHandlerError(t *testing.T) {
	want := errors.New("store unavailable")
	handler := &BookingConsumerHandler{Handler: func(*models.BookingEvent) error { return want }}

	payload, err := json.Marshal(&models.BookingEvent{Type: "booking.created"})
	require.NoError(t, err)

	assert.ErrorIs(t, handler.ProcessMessage(payload), want)
}
