package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"voxelfuel.ai/internal/protocol"
	"voxelfuel.ai/internal/sim/world"
)

// World is the part of the simulation a panel connection talks to.
type World interface {
	Join(ctx context.Context, sessionID string, out chan []byte) (protocol.WelcomeMsg, error)
	Leave(sessionID string)
	Submit(ctx context.Context, c world.Command) (world.CommandResult, error)
}

type Server struct {
	world     World
	log       zerolog.Logger
	validator *protocol.Validator

	commandTimeout time.Duration

	upgrader websocket.Upgrader
}

func NewServer(w World, v *protocol.Validator, logger zerolog.Logger) *Server {
	return &Server{
		world:          w,
		log:            logger.With().Str("component", "panel_ws").Logger(),
		validator:      v,
		commandTimeout: 5 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sessionID, out := s.handshake(ctx, conn)
		if sessionID == "" {
			return
		}
		log := s.log.With().Str("session", sessionID).Logger()
		log.Info().Str("remote", r.RemoteAddr).Msg("panel connected")

		// Replies share the writer goroutine with world frames; gorilla allows
		// one concurrent writer per connection.
		replies := make(chan any, 16)
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				case v := <-replies:
					if err := writeJSON(conn, v); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		reply := func(v any) {
			select {
			case replies <- v:
			case <-ctx.Done():
			}
		}

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			if resp := s.handleMessage(ctx, msg); resp != nil {
				reply(resp)
			}
			if ctx.Err() != nil {
				break
			}
		}

		cancel()
		<-writerDone
		s.world.Leave(sessionID)
		log.Info().Msg("panel disconnected")
	}
}

// handleMessage returns the ACK or ERROR for one client frame.
func (s *Server) handleMessage(ctx context.Context, msg []byte) any {
	env, err := protocol.DecodeEnvelope(msg)
	if err != nil {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "malformed json")
	}
	if env.Type != protocol.TypeCmd {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "unexpected message type "+env.Type)
	}
	if !env.Compatible() {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "bad protocol_version")
	}

	var cmd protocol.CmdMsg
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return protocol.NewError("", protocol.ErrBadRequest, err.Error())
	}
	if s.validator != nil {
		if err := s.validator.ValidateCmd(msg); err != nil {
			return protocol.NewError(cmd.ID, protocol.ErrBadRequest, err.Error())
		}
	}
	c, err := world.CommandFromMsg(cmd)
	if err != nil {
		return protocol.NewError(cmd.ID, world.ErrorCode(err), err.Error())
	}

	cctx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()
	res, err := s.world.Submit(cctx, c)
	if err != nil {
		code := world.ErrorCode(err)
		if code == protocol.ErrInternal {
			code = protocol.ErrWorldBusy
		}
		return protocol.NewError(cmd.ID, code, err.Error())
	}
	if res.Err != nil {
		s.log.Debug().Err(res.Err).Str("id", cmd.ID).Str("action", cmd.Action).Msg("command rejected")
		return protocol.NewError(cmd.ID, world.ErrorCode(res.Err), res.Err.Error())
	}
	return protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		ID:              cmd.ID,
		Tick:            res.Tick,
		Item:            res.Taken,
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	env, err := protocol.DecodeEnvelope(msg)
	if err != nil || env.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}
	if s.validator != nil {
		if err := s.validator.ValidateHello(msg); err != nil {
			closeWith(conn, "invalid HELLO")
			return "", nil
		}
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", nil
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	out = make(chan []byte, maxQ)
	sessionID = uuid.NewString()

	jctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	welcome, err := s.world.Join(jctx, sessionID, out)
	if err != nil {
		_ = writeJSON(conn, protocol.NewError("", protocol.ErrWorldBusy, err.Error()))
		return "", nil
	}
	if err := writeJSON(conn, welcome); err != nil {
		s.world.Leave(sessionID)
		return "", nil
	}
	return sessionID, out
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
