package world

import (
	"context"
	"time"

	"voxelfuel.ai/internal/protocol"
	"voxelfuel.ai/internal/sim/geom"
)

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type StatusLogger interface {
	WriteStatus(ev StatusEvent) error
}

type TickLogEntry struct {
	Tick     uint64            `json:"tick"`
	Commands []RecordedCommand `json:"commands,omitempty"`
	Loaders  []LoaderActivity  `json:"loaders,omitempty"`
	Digest   string            `json:"digest"`
}

// RecordedCommand carries enough of a command to re-apply it on replay.
type RecordedCommand struct {
	ID        string             `json:"id,omitempty"`
	Action    string             `json:"action"`
	Pos       [3]int             `json:"pos"`
	Direction string             `json:"direction,omitempty"`
	Target    *[3]int            `json:"target,omitempty"`
	Slot      int                `json:"slot,omitempty"`
	Item      *protocol.ItemSpec `json:"item,omitempty"`
	Err       string             `json:"err,omitempty"`
}

// LoaderActivity is recorded for loaders that moved energy or fuel this tick.
type LoaderActivity struct {
	Pos       [3]int `json:"pos"`
	Status    string `json:"status"`
	Charged   int64  `json:"charged,omitempty"`
	Intake    int64  `json:"intake,omitempty"`
	Delivered int64  `json:"delivered,omitempty"`
	Rocket    string `json:"rocket,omitempty"`
}

// StatusEvent is emitted when a loader's status or connection changes. From
// is empty the first time a loader is evaluated.
type StatusEvent struct {
	Tick       uint64  `json:"tick"`
	Pos        [3]int  `json:"pos"`
	From       string  `json:"from,omitempty"`
	To         string  `json:"to"`
	Class      string  `json:"class"`
	Connection *[3]int `json:"connection,omitempty"`
	Rocket     string  `json:"rocket,omitempty"`
}

type stepReport struct {
	events    []StatusEvent
	delivered int64
	intake    int64
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []commandEnvelope
	var waitingSnaps []chan snapshotResult

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			w.handleJoin(req)
		case id := <-w.leave:
			w.handleLeave(id)
		case ch := <-w.snapReq:
			waitingSnaps = append(waitingSnaps, ch)
		case env := <-w.inbox:
			pending = append(pending, env)
		case <-ticker.C:
			_ = w.step(ctx, pending)
			w.flushSnapshotRequests(waitingSnaps)
			pending = pending[:0]
			waitingSnaps = waitingSnaps[:0]
		}
	}
}

func (w *World) Stop() { w.stopOnce.Do(func() { close(w.stop) }) }

// Step advances the world by one tick with the given commands applied first.
// It is meant for tests and tools; never call it while Run is active.
func (w *World) Step(cmds ...Command) []CommandResult {
	envs := make([]commandEnvelope, len(cmds))
	for i, c := range cmds {
		envs[i] = commandEnvelope{Cmd: c, Resp: make(chan CommandResult, 1)}
	}
	_ = w.step(context.Background(), envs)
	out := make([]CommandResult, len(envs))
	for i, env := range envs {
		out[i] = <-env.Resp
	}
	return out
}

// step runs one tick and returns its state digest.
func (w *World) step(ctx context.Context, cmds []commandEnvelope) string {
	stepStart := time.Now()
	nowTick := w.tick.Load()
	entry := TickLogEntry{Tick: nowTick}

	dirty := map[geom.Pos]bool{}
	prevConn := make(map[geom.Pos]*geom.Pos, len(w.loaders))
	for p, l := range w.loaders {
		if c, ok := l.Connection(); ok {
			prevConn[p] = &c
		}
	}

	// Commands apply in arrival order before any loader ticks.
	for _, env := range cmds {
		res := w.applyCommand(env.Cmd)
		rec := recordCommand(env.Cmd)
		if res.Err != nil {
			rec.Err = res.Err.Error()
			w.log.Debug().Err(res.Err).Str("action", env.Cmd.Action).Stringer("pos", env.Cmd.Pos).Msg("command rejected")
		} else {
			dirty[env.Cmd.Pos] = true
		}
		entry.Commands = append(entry.Commands, rec)
		if env.Resp != nil {
			select {
			case env.Resp <- res:
			default:
			}
		}
	}

	var rep stepReport
	var changed []protocol.LoaderState
	for _, p := range w.loaderPositions() {
		l := w.loaders[p]
		tr := l.Tick(w)

		rep.delivered += int64(tr.Delivered)
		rep.intake += int64(tr.Intake)
		if tr.Charged > 0 || tr.Intake > 0 || tr.Delivered > 0 {
			entry.Loaders = append(entry.Loaders, LoaderActivity{
				Pos:       p.ToArray(),
				Status:    tr.Status.String(),
				Charged:   tr.Charged,
				Intake:    int64(tr.Intake),
				Delivered: int64(tr.Delivered),
				Rocket:    tr.RocketID,
			})
		}

		prev, seen := w.lastStatus[p]
		w.lastStatus[p] = tr.Status
		cur, connected := l.Connection()
		was := prevConn[p]
		connChanged := tr.ConnectionChanged || connected != (was != nil) || (connected && was != nil && *was != cur)

		if !seen || prev != tr.Status || connChanged {
			ev := StatusEvent{
				Tick:   nowTick,
				Pos:    p.ToArray(),
				To:     tr.Status.String(),
				Class:  tr.Status.Class().String(),
				Rocket: tr.RocketID,
			}
			if seen {
				ev.From = prev.String()
			}
			if connected {
				a := cur.ToArray()
				ev.Connection = &a
			}
			rep.events = append(rep.events, ev)
			if w.statusLogger != nil {
				if err := w.statusLogger.WriteStatus(ev); err != nil {
					w.log.Warn().Err(err).Msg("status log write failed")
				}
			}
			if seen && prev != tr.Status {
				w.log.Debug().Stringer("pos", p).Str("from", ev.From).Str("to", ev.To).Msg("loader status")
			}
			dirty[p] = true
		}
	}

	for _, p := range w.loaderPositions() {
		if dirty[p] {
			st, _ := w.LoaderState(p)
			changed = append(changed, st)
		}
	}

	w.deliveredTotal += rep.delivered
	w.intakeTotal += rep.intake

	entry.Digest = w.stateDigest(nowTick)
	if w.tickLogger != nil {
		if err := w.tickLogger.WriteTick(entry); err != nil {
			w.log.Warn().Err(err).Uint64("tick", nowTick).Msg("tick log write failed")
		}
	}

	full := nowTick%uint64(w.cfg.PanelFullEveryTicks) == 0
	w.broadcastStatus(nowTick, changed, full)

	if w.snapshotSink != nil && nowTick != 0 && w.cfg.SnapshotEveryTicks > 0 {
		if nowTick%uint64(w.cfg.SnapshotEveryTicks) == 0 {
			snap := w.ExportSnapshot(nowTick)
			select {
			case w.snapshotSink <- snap:
			default:
				w.log.Warn().Uint64("tick", nowTick).Msg("snapshot sink full, dropping snapshot")
			}
		}
	}

	stepMS := float64(time.Since(stepStart).Microseconds()) / 1000.0
	nextTick := w.tick.Add(1)

	statuses := map[string]int{}
	for _, l := range w.loaders {
		statuses[l.Status().String()]++
	}
	w.metrics.recordTick(ctx, rep)
	w.metrics.store(WorldMetrics{
		Tick:     nextTick,
		Loaders:  len(w.loaders),
		Pads:     len(w.pads),
		Rockets:  len(w.rockets),
		Sessions: len(w.sessions),
		QueueDepths: QueueDepths{
			Inbox: len(w.inbox),
			Join:  len(w.join),
			Leave: len(w.leave),
		},
		StepMS:         stepMS,
		Statuses:       statuses,
		DeliveredTotal: w.deliveredTotal,
		IntakeTotal:    w.intakeTotal,
	})
	return entry.Digest
}
