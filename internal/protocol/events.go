// Package protocol defines the relay's wire events: one JSON text frame per
// event, {"event": <name>, "data": <payload>}, in both directions.
package protocol

// Inbound events.
const (
	EvLogin         = "login"
	EvGetPresence   = "get-presence"
	EvJoinChatRoom  = "join-chat-room"
	EvLeaveChatRoom = "leave-chat-room"
	EvNewChat       = "new-chat"
	EvChatMessage   = "chat-message"
	EvDeleteMessage = "delete-message"
	EvTyping        = "typing"
	EvMessageRead   = "message-read"
	EvUpdateUnread  = "update-unread"
	EvJoinRoom      = "join-room"
	EvSignal        = "signal"
	EvLeaveRoom     = "leave-room"
	EvCallRequest   = "call:request"
	EvCallAccept    = "call:accept"
	EvCallReject    = "call:reject"
	EvCallEnd       = "call:end"
	EvCallMissed    = "call:missed"
	EvPing          = "ping"
)

// Outbound-only events. Several inbound names are echoed back unchanged
// (chat-message, typing, signal, call:accept, ...).
const (
	EvUserOnline     = "user-online"
	EvUserOffline    = "user-offline"
	EvPresence       = "presence"
	EvUserJoinedChat = "user-joined-chat"
	EvUserLeftChat   = "user-left-chat"
	EvCallIncoming   = "call:incoming"
	EvCallBusy       = "call:busy"
	EvSystemMessage  = "chat-system-message"
	EvPong           = "pong"
)

// Signal types pushed to call rooms on membership changes.
const (
	SignalUserJoined = "user-joined"
	SignalUserLeft   = "user-left"
)
