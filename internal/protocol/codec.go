package protocol

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dkeye/Relay/internal/core"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrMalformed    = errors.New("malformed payload")
)

// Envelope is the frame wrapper used in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

var inbound = map[string]func() any{
	EvLogin:         func() any { return &Login{} },
	EvGetPresence:   func() any { return &GetPresence{} },
	EvJoinChatRoom:  func() any { return &RoomUser{} },
	EvLeaveChatRoom: func() any { return &RoomUser{} },
	EvNewChat:       func() any { return &NewChat{} },
	EvChatMessage:   func() any { return &ChatMessage{} },
	EvDeleteMessage: func() any { return &DeleteMessage{} },
	EvTyping:        func() any { return &RoomUser{} },
	EvMessageRead:   func() any { return &MessageRead{} },
	EvUpdateUnread:  func() any { return &UpdateUnread{} },
	EvJoinRoom:      func() any { return &RoomUser{} },
	EvSignal:        func() any { return &Signal{} },
	EvLeaveRoom:     func() any { return &RoomUser{} },
	EvCallRequest:   func() any { return &Call{} },
	EvCallAccept:    func() any { return &Call{} },
	EvCallReject:    func() any { return &Call{} },
	EvCallEnd:       func() any { return &Call{} },
	EvCallMissed:    func() any { return &Call{} },
	EvPing:          func() any { return &Ping{} },
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Known reports whether event is an inbound event the relay understands.
func Known(event string) bool {
	_, ok := inbound[event]
	return ok
}

// ParseEnvelope splits a raw frame into event name and payload.
func ParseEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event", ErrMalformed)
	}
	return env, nil
}

// Decode turns a payload into the typed value for event and validates it.
func Decode(event string, data json.RawMessage) (any, error) {
	factory, ok := inbound[event]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	v := factory()
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, event, err)
		}
	}
	if err := validate.Struct(v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, event, err)
	}
	if r, ok := v.(interface{ setRaw(json.RawMessage) }); ok {
		r.setRaw(data)
	}
	return v, nil
}

// Encode builds an outbound frame.
func Encode(event string, payload any) (core.Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
