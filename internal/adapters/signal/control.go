package signal

import (
	"time"

	"github.com/dkeye/Relay/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// installControl arms the read deadline and extends it on every pong.
func (ctl *SignalWSController) installControl(sid core.SessionID, c *WsSignalConn) error {
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	if err := c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait)); err != nil {
		return err
	}
	c.conn.SetPongHandler(func(string) error {
		log.Trace().Str("module", "signal").Str("sid", string(sid)).Msg("pong")
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})
	return nil
}

func (ctl *SignalWSController) writePing(c *WsSignalConn) error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait))
}

func (ctl *SignalWSController) writeClose(c *WsSignalConn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(ctl.opts.WriteWait))
}
