package orch

import (
	"errors"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) call(sid core.SessionID, event string, m *protocol.Call) {
	ev := app.CallEvent{RoomID: m.RoomID, From: m.From, To: m.To, IsVideo: m.IsVideo}

	var tr app.CallTransition
	switch event {
	case protocol.EvCallRequest:
		var err error
		tr, err = o.Calls.Request(ev)
		if errors.Is(err, app.ErrCallInProgress) {
			o.toConn(sid, protocol.EvCallBusy, protocol.CallBusy{RoomID: m.RoomID})
			return
		}
		o.toUser(m.To.UserID, protocol.EvCallIncoming, m)
	case protocol.EvCallAccept:
		tr = o.Calls.Accept(ev)
		o.toRoom(m.RoomID, event, m, sid)
	case protocol.EvCallReject:
		tr = o.Calls.Reject(ev)
		o.toRoom(m.RoomID, event, m, sid)
	case protocol.EvCallEnd:
		tr = o.Calls.End(ev)
		o.toRoom(m.RoomID, event, m, sid)
	case protocol.EvCallMissed:
		tr = o.Calls.Missed(ev)
	}
	if !tr.Applied {
		log.Debug().Str("module", "orch").Str("room", string(m.RoomID)).Str("event", event).Str("state", string(tr.From)).Msg("call event ignored by state")
	}
	o.notice(tr.Notice)
}

// onRingExpired runs on the ring timer goroutine.
func (o *Orchestrator) onRingExpired(roomID domain.RoomID, s *domain.CallSession) {
	o.mu.Lock()
	defer o.mu.Unlock()
	tr, ok := o.Calls.Expire(roomID, s)
	if !ok {
		return
	}
	o.toRoom(roomID, protocol.EvCallMissed, protocol.Call{
		RoomID:  roomID,
		From:    tr.Session.From,
		To:      tr.Session.To,
		IsVideo: tr.Session.IsVideo,
	}, "")
	o.notice(tr.Notice)
	o.observe()
}

func (o *Orchestrator) notice(msg domain.SystemMessage) {
	o.toRoom(msg.RoomID, protocol.EvSystemMessage, protocol.SystemNotice{RoomID: msg.RoomID, Message: msg}, "")
}
