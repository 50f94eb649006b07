// Command bot is a panel automation client: it keeps loaders supplied by
// reacting to the status class each loader reports.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"voxelfuel.ai/internal/logging"
	"voxelfuel.ai/internal/protocol"
	"voxelfuel.ai/internal/sim/geom"
)

func main() {
	fs := pflag.NewFlagSet("bot", pflag.ExitOnError)
	var (
		url      = fs.String("url", "ws://localhost:8080/v1/panel", "panel ws url")
		name     = fs.String("name", "bot", "client name")
		charge   = fs.Int64("battery-charge", 15000, "charge of inserted batteries")
		amount   = fs.Int64("canister-amount", 81000, "fuel in inserted canisters")
		cooldown = fs.Uint64("cooldown", 20, "ticks before repeating the same command on a loader")
		level    = fs.String("log-level", "info", "log level")
	)
	_ = fs.Parse(os.Args[1:])

	logger := logging.New(os.Stdout, *level, "console").With().Str("component", "bot").Logger()
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("dial")
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Capabilities:    protocol.Capabilities{MaxQueue: 8},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatal().Err(err).Msg("send HELLO")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		_ = conn.Close()
	}()

	b := newBot(supplies{BatteryCharge: *charge, CanisterAmount: *amount}, *cooldown)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeEnvelope(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Info().Str("session", w.SessionID).Str("world", w.WorldID).Uint64("tick", w.Tick).Int("loaders", len(w.Loaders)).Msg("WELCOME")
			send(conn, logger, b.react(w.Tick, w.Loaders))
		case protocol.TypeStatus:
			var st protocol.StatusMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			send(conn, logger, b.react(st.Tick, st.Loaders))
		case protocol.TypeError:
			var e protocol.ErrorMsg
			if err := json.Unmarshal(msg, &e); err == nil {
				logger.Warn().Str("id", e.ID).Str("code", e.Code).Bool("retryable", protocol.Retryable(e.Code)).Str("message", e.Message).Msg("command rejected")
			}
		}
	}
}

func send(conn *websocket.Conn, logger zerolog.Logger, cmds []protocol.CmdMsg) {
	for _, c := range cmds {
		logger.Info().Str("id", c.ID).Str("action", c.Action).Ints("pos", c.Pos[:]).Msg("CMD")
		if err := conn.WriteJSON(c); err != nil {
			logger.Error().Err(err).Msg("send CMD")
			return
		}
	}
}

type supplies struct {
	BatteryCharge  int64
	CanisterAmount int64
}

type lastCmd struct {
	key  string
	tick uint64
}

type bot struct {
	supplies supplies
	cooldown uint64
	seq      uint64
	last     map[[3]int]lastCmd
	probe    map[[3]int]int
}

func newBot(s supplies, cooldown uint64) *bot {
	return &bot{supplies: s, cooldown: cooldown, last: map[[3]int]lastCmd{}, probe: map[[3]int]int{}}
}

// react returns the commands that move each loader toward LOADING.
func (b *bot) react(tick uint64, loaders []protocol.LoaderState) []protocol.CmdMsg {
	var out []protocol.CmdMsg
	for _, st := range loaders {
		c, ok := b.decide(st)
		if !ok {
			continue
		}
		key := c.Action + fmt.Sprint(c.Slot, c.Direction)
		if prev, seen := b.last[st.Pos]; seen && prev.key == key && tick < prev.tick+b.cooldown {
			continue
		}
		b.last[st.Pos] = lastCmd{key: key, tick: tick}
		if c.Action == protocol.ActionRecheckConnection {
			b.probe[st.Pos]++
		}
		b.seq++
		c.Type = protocol.TypeCmd
		c.ProtocolVersion = protocol.Version
		c.ID = fmt.Sprintf("bot_%d", b.seq)
		c.Pos = st.Pos
		out = append(out, c)
	}
	return out
}

func (b *bot) decide(st protocol.LoaderState) (protocol.CmdMsg, bool) {
	switch st.Class {
	case "MISSING_ENERGY":
		if st.Slots[0] != "" {
			return protocol.CmdMsg{Action: protocol.ActionTakeItem, Slot: 0}, true
		}
		return protocol.CmdMsg{Action: protocol.ActionInsertItem, Slot: 0, Item: &protocol.ItemSpec{Item: "BATTERY", Charge: b.supplies.BatteryCharge}}, true
	case "MISSING_FLUIDS":
		if st.Slots[1] != "" {
			return protocol.CmdMsg{Action: protocol.ActionTakeItem, Slot: 1}, true
		}
		return protocol.CmdMsg{Action: protocol.ActionInsertItem, Slot: 1, Item: &protocol.ItemSpec{Item: "FUEL_CANISTER", Fluid: "FUEL", Amount: b.supplies.CanisterAmount}}, true
	case "MISSING_RESOURCE":
		if st.Connection != nil {
			break
		}
		dirs := geom.Directions()
		d := dirs[b.probe[st.Pos]%len(dirs)]
		return protocol.CmdMsg{Action: protocol.ActionRecheckConnection, Direction: d.String()}, true
	}
	return protocol.CmdMsg{}, false
}
