package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_HandsEventToHandler(t *testing.T) {
	body, err := json.Marshal(Event{ID: "e1", Type: EventStatusChanged, RecipientID: 3, Status: "APPROVED"})
	require.NoError(t, err)

	var got Event
	err = Decode(context.Background(), body, func(_ context.Context, ev Event) error {
		got = ev
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)
	assert.Equal(t, "Reservation approved", got.Title())
}

func TestDecode_RejectsBadPayloads(t *testing.T) {
	called := false
	handle := func(context.Context, Event) error {
		called = true
		return nil
	}

	assert.Error(t, Decode(context.Background(), []byte("{"), handle))
	assert.Error(t, Decode(context.Background(), []byte(`{"type":"reservation.created"}`), handle))
	assert.False(t, called)
}
