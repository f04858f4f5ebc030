package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillboard/quillboard/internal/revocation"
)

func TestEventRoundTrip(t *testing.T) {
	in := revocation.Event{
		UserID: 42,
		Action: revocation.ActionBan,
		At:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	key, value, err := encodeEvent(in)
	require.NoError(t, err)
	assert.Equal(t, []byte("42"), key)

	out, err := decodeEvent(value)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeEventRejectsBadInput(t *testing.T) {
	_, err := decodeEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = decodeEvent([]byte(`{"user_id":1,"action":"promote"}`))
	assert.Error(t, err)
}
