package protocol_test

import (
	"testing"
	"time"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLogin(t *testing.T) {
	v, err := protocol.Decode(protocol.EvLogin, json.RawMessage(`{"userId":"u1"}`))
	require.NoError(t, err)
	assert.Equal(t, &protocol.Login{UserID: "u1"}, v)
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		protocol.EvLogin:         `{}`,
		protocol.EvJoinChatRoom:  `{"roomId":"r1"}`,
		protocol.EvGetPresence:   `{"userIds":[]}`,
		protocol.EvDeleteMessage: `{"roomId":"r1","userId":"u1"}`,
		protocol.EvUpdateUnread:  `{"chatId":"c1","userId":"u1"}`,
		protocol.EvSignal:        `{"roomId":"r1"}`,
		protocol.EvCallRequest:   `{"roomId":"r1","from":{"userId":"u1"}}`,
		protocol.EvChatMessage:   `{"text":"hi","recipients":["u2"]}`,
	}
	for event, payload := range cases {
		t.Run(event, func(t *testing.T) {
			_, err := protocol.Decode(event, json.RawMessage(payload))
			assert.ErrorIs(t, err, protocol.ErrMalformed)
		})
	}
}

func TestDecodeEmptyPayloadIsMalformed(t *testing.T) {
	_, err := protocol.Decode(protocol.EvTyping, nil)
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}

func TestDecodeUnknownEvent(t *testing.T) {
	_, err := protocol.Decode("shutdown", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, protocol.ErrUnknownEvent)
	assert.False(t, protocol.Known("shutdown"))
	assert.True(t, protocol.Known(protocol.EvCallEnd))
}

func TestDecodeUnreadCountAllowsZero(t *testing.T) {
	v, err := protocol.Decode(protocol.EvUpdateUnread, json.RawMessage(`{"chatId":"c1","userId":"u1","unreadCount":0}`))
	require.NoError(t, err)
	u := v.(*protocol.UpdateUnread)
	require.NotNil(t, u.UnreadCount)
	assert.Zero(t, *u.UnreadCount)

	_, err = protocol.Decode(protocol.EvUpdateUnread, json.RawMessage(`{"chatId":"c1","userId":"u1","unreadCount":-1}`))
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}

func TestDecodeCallParticipants(t *testing.T) {
	v, err := protocol.Decode(protocol.EvCallRequest, json.RawMessage(
		`{"roomId":"r1","from":{"userId":"u1","name":"Ann"},"to":"u2","isVideo":true}`))
	require.NoError(t, err)
	c := v.(*protocol.Call)
	assert.Equal(t, domain.Participant{UserID: "u1", Name: "Ann"}, c.From)
	assert.Equal(t, domain.Participant{UserID: "u2"}, c.To)
	assert.Equal(t, "u2", c.To.DisplayName())
	assert.True(t, c.IsVideo)
}

func TestChatMessageForwardsExtraFields(t *testing.T) {
	v, err := protocol.Decode(protocol.EvChatMessage, json.RawMessage(
		`{"roomId":"r1","userId":"u1","message":"hi","type":"text","recipients":["u2"]}`))
	require.NoError(t, err)
	m := v.(*protocol.ChatMessage)
	assert.Equal(t, domain.UserID("u1"), m.Sender())
	assert.Equal(t, []string{"u2"}, m.Recipients)

	now := time.UnixMilli(1700000000000)
	out, err := m.Outbound(now, m.Sender())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "hi", got["message"])
	assert.Equal(t, "text", got["type"])
	assert.Equal(t, "u1", got["senderId"])
	assert.Equal(t, "u1", got["userId"])
	assert.EqualValues(t, 1700000000000, got["time"])
}

func TestChatMessageWithoutSender(t *testing.T) {
	v, err := protocol.Decode(protocol.EvChatMessage, json.RawMessage(`{"roomId":"r1","text":"hi","recipients":["u2"]}`))
	require.NoError(t, err)
	m := v.(*protocol.ChatMessage)
	assert.Empty(t, m.Sender())

	out, err := m.Outbound(time.UnixMilli(1700000000000), "u1")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "u1", got["senderId"])
	assert.Equal(t, "u1", got["userId"])
	assert.Equal(t, "hi", got["text"])

	out, err = m.Outbound(time.UnixMilli(1700000000000), "")
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal(out, &got))
	assert.NotContains(t, got, "senderId")
}

func TestParseEnvelope(t *testing.T) {
	env, err := protocol.ParseEnvelope([]byte(`{"event":"typing","data":{"roomId":"r1","userId":"u1"}}`))
	require.NoError(t, err)
	assert.Equal(t, protocol.EvTyping, env.Event)
	assert.JSONEq(t, `{"roomId":"r1","userId":"u1"}`, string(env.Data))

	_, err = protocol.ParseEnvelope([]byte(`{"data":{}}`))
	assert.ErrorIs(t, err, protocol.ErrMalformed)
	_, err = protocol.ParseEnvelope([]byte(`not json`))
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}

func TestEncodeUnreadIncrement(t *testing.T) {
	frame, err := protocol.Encode(protocol.EvUpdateUnread, protocol.Increment("r1", 1))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"update-unread","data":{"chatId":"r1","increment":1}}`, string(frame))
}
