package world

import (
	"context"
	"encoding/json"
	"errors"

	"voxelfuel.ai/internal/protocol"
)

type JoinRequest struct {
	SessionID string
	Out       chan []byte
	Resp      chan protocol.WelcomeMsg
}

type panelSession struct {
	id  string
	out chan []byte
}

// Join registers a panel session. STATUS frames are pushed to out until
// Leave; the world closes out when the session leaves.
func (w *World) Join(ctx context.Context, sessionID string, out chan []byte) (protocol.WelcomeMsg, error) {
	if sessionID == "" || out == nil {
		return protocol.WelcomeMsg{}, errors.New("session id and out channel required")
	}
	resp := make(chan protocol.WelcomeMsg, 1)
	select {
	case w.join <- JoinRequest{SessionID: sessionID, Out: out, Resp: resp}:
	case <-ctx.Done():
		return protocol.WelcomeMsg{}, ctx.Err()
	}
	select {
	case m := <-resp:
		return m, nil
	case <-ctx.Done():
		return protocol.WelcomeMsg{}, ctx.Err()
	}
}

func (w *World) Leave(sessionID string) {
	select {
	case w.leave <- sessionID:
	case <-w.stop:
	}
}

func (w *World) handleJoin(req JoinRequest) {
	if old := w.sessions[req.SessionID]; old != nil {
		close(old.out)
	}
	w.sessions[req.SessionID] = &panelSession{id: req.SessionID, out: req.Out}
	w.log.Info().Str("session", req.SessionID).Msg("panel joined")

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       req.SessionID,
		WorldID:         w.cfg.ID,
		Tick:            w.tick.Load(),
		TickRateHz:      w.cfg.TickRateHz,
		Loaders:         w.LoaderStates(),
	}
	if req.Resp != nil {
		req.Resp <- welcome
	}
}

func (w *World) handleLeave(sessionID string) {
	s := w.sessions[sessionID]
	if s == nil {
		return
	}
	delete(w.sessions, sessionID)
	close(s.out)
	w.log.Info().Str("session", sessionID).Msg("panel left")
}

// broadcastStatus sends changed loaders, or every loader on full frames.
func (w *World) broadcastStatus(tick uint64, changed []protocol.LoaderState, full bool) {
	if len(w.sessions) == 0 {
		return
	}
	if !full && len(changed) == 0 {
		return
	}
	msg := protocol.StatusMsg{
		Type:            protocol.TypeStatus,
		ProtocolVersion: protocol.Version,
		Tick:            tick,
		Full:            full,
		Loaders:         changed,
	}
	if full {
		msg.Loaders = w.LoaderStates()
	}
	if msg.Loaders == nil {
		msg.Loaders = []protocol.LoaderState{}
	}
	b, err := json.Marshal(msg)
	if err != nil {
		w.log.Error().Err(err).Msg("marshal status")
		return
	}
	for _, s := range w.sessions {
		sendLatest(s.out, b)
	}
}

// sendLatest never blocks the world loop; a slow reader loses its oldest
// pending frame.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
