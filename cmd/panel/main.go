// Command panel is a terminal view of every fuel loader in a world, with
// keys for the panel commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"

	"voxelfuel.ai/internal/protocol"
)

func main() {
	fs := pflag.NewFlagSet("panel", pflag.ExitOnError)
	url := fs.String("url", "ws://localhost:8080/v1/panel", "panel ws url")
	name := fs.String("name", "panel", "client name")
	_ = fs.Parse(os.Args[1:])

	if err := run(*url, *name); err != nil {
		fmt.Fprintln(os.Stderr, "panel:", err)
		os.Exit(1)
	}
}

func run(url, name string) error {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      name,
		Capabilities:    protocol.Capabilities{MaxQueue: 16},
	}
	if err := conn.WriteJSON(hello); err != nil {
		return fmt.Errorf("send HELLO: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	frames := make(chan []byte, 16)
	readErr := make(chan error, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			frames <- msg
		}
	}()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	m := newModel()
	for {
		screen.Clear()
		draw(screen, m)
		screen.Show()

		select {
		case err := <-readErr:
			return fmt.Errorf("connection closed: %w", err)
		case msg := <-frames:
			handleFrame(m, msg)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				cmd, quit := m.key(ev)
				if quit {
					_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
					return nil
				}
				if cmd != nil {
					if err := conn.WriteJSON(cmd); err != nil {
						return fmt.Errorf("send CMD: %w", err)
					}
				}
			}
		}
	}
}

func handleFrame(m *model, msg []byte) {
	base, err := protocol.DecodeEnvelope(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var w protocol.WelcomeMsg
		if json.Unmarshal(msg, &w) == nil {
			m.welcome(w)
		}
	case protocol.TypeStatus:
		var st protocol.StatusMsg
		if json.Unmarshal(msg, &st) == nil {
			m.apply(st.Tick, st.Loaders, st.Full)
		}
	case protocol.TypeAck:
		var a protocol.AckMsg
		if json.Unmarshal(msg, &a) == nil {
			m.ack(a)
		}
	case protocol.TypeError:
		var e protocol.ErrorMsg
		if json.Unmarshal(msg, &e) == nil {
			m.reject(e)
		}
	}
}
