package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/quietdesk/focusroom/internal/core"
	"github.com/quietdesk/focusroom/internal/domain"
)

// envelope is the outer shape of every frame in both directions. Payload
// stays raw until the matching handler validates it.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid domain.ConnID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.handleDisconnect(sid)
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(sid, c, data)
		}
	}
}

// dispatch routes one inbound event to its handler. Each event is handled
// to completion before the next one from this connection is read, and a
// panicking handler is contained here so it cannot take other sessions
// down with it.
func (ctl *SignalWSController) dispatch(sid domain.ConnID, c *WsSignalConn, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "signal").Str("sid", string(sid)).Any("panic", r).Msg("handler panic recovered")
		}
	}()

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}

	switch env.Type {
	case "room:create":
		ctl.handleCreateRoom(sid, c, env.Payload)
	case "room:join":
		ctl.handleJoin(sid, c, env.Payload)
	case "room:leave":
		ctl.handleLeave(sid)
	case "media:toggle":
		ctl.handleMediaToggle(sid, env.Payload)
	case "chat:message":
		ctl.handleChat(sid, c, env.Payload)
	case "user:ping":
		ctl.handlePing(sid, env.Payload)
	case "request:send":
		ctl.handleRequestSend(sid, env.Payload)
	case "request:respond":
		ctl.handleRequestRespond(sid, env.Payload)
	case "webrtc:offer":
		ctl.handleOffer(sid, env.Payload)
	case "webrtc:answer":
		ctl.handleAnswer(sid, env.Payload)
	case "webrtc:ice-candidate":
		ctl.handleICECandidate(sid, env.Payload)
	case "whiteboard:draw":
		ctl.handleDraw(sid, env.Payload)
	case "whiteboard:clear":
		ctl.handleBoardClear(sid)
	case "whiteboard:request-history":
		ctl.handleBoardHistory(sid, c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *SignalWSController) sendJSON(c core.SignalConnection, typ string, payload any) {
	b, err := json.Marshal(frame{Type: typ, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// sendTo delivers to one connection; an absent target is a normal no-op
// because membership is expected to change between send and delivery.
func (ctl *SignalWSController) sendTo(id domain.ConnID, typ string, payload any) {
	conn, ok := ctl.Orch.Registry.Signal(id)
	if !ok {
		log.Debug().Str("module", "signal").Str("to", string(id)).Str("type", typ).Msg("target gone, dropped")
		return
	}
	ctl.sendJSON(conn, typ, payload)
}

// broadcastRoom fans out to every member of a room, minus exclude.
func (ctl *SignalWSController) broadcastRoom(roomID domain.RoomID, exclude domain.ConnID, typ string, payload any) {
	for _, snap := range ctl.Orch.Registry.RoomConns(roomID, exclude) {
		ctl.sendJSON(snap.Conn, typ, payload)
	}
}

// broadcastDirectory pushes the room directory to every connection, in a
// room or not, since the directory shows global participant counts.
func (ctl *SignalWSController) broadcastDirectory() {
	rooms := ctl.Orch.Registry.ListRooms()
	for _, snap := range ctl.Orch.Registry.AllConns() {
		ctl.sendJSON(snap.Conn, "rooms:list", rooms)
	}
}
