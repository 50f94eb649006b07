package main

import (
	"fmt"
	"io"
	"sort"

	"voxelfuel.ai/internal/persistence/indexdb"
	"voxelfuel.ai/internal/sim/world"
)

func writeWorldMetrics(out io.Writer, m world.WorldMetrics) {
	fmt.Fprintf(out, "# HELP voxelfuel_world_tick Current world tick.\n")
	fmt.Fprintf(out, "# TYPE voxelfuel_world_tick gauge\n")
	fmt.Fprintf(out, "voxelfuel_world_tick %d\n", m.Tick)

	fmt.Fprintf(out, "# HELP voxelfuel_world_step_ms Duration of the last world step in milliseconds.\n")
	fmt.Fprintf(out, "# TYPE voxelfuel_world_step_ms gauge\n")
	fmt.Fprintf(out, "voxelfuel_world_step_ms %.3f\n", m.StepMS)

	fmt.Fprintf(out, "# HELP voxelfuel_panel_sessions Connected panel sessions.\n")
	fmt.Fprintf(out, "# TYPE voxelfuel_panel_sessions gauge\n")
	fmt.Fprintf(out, "voxelfuel_panel_sessions %d\n", m.Sessions)

	fmt.Fprintf(out, "# HELP voxelfuel_world_queue_depth Pending items per world queue.\n")
	fmt.Fprintf(out, "# TYPE voxelfuel_world_queue_depth gauge\n")
	fmt.Fprintf(out, "voxelfuel_world_queue_depth{queue=\"inbox\"} %d\n", m.QueueDepths.Inbox)
	fmt.Fprintf(out, "voxelfuel_world_queue_depth{queue=\"join\"} %d\n", m.QueueDepths.Join)
	fmt.Fprintf(out, "voxelfuel_world_queue_depth{queue=\"leave\"} %d\n", m.QueueDepths.Leave)

	fmt.Fprintf(out, "# HELP voxelfuel_fuel_loaders Fuel loaders per status.\n")
	fmt.Fprintf(out, "# TYPE voxelfuel_fuel_loaders gauge\n")
	names := make([]string, 0, len(m.Statuses))
	for name := range m.Statuses {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "voxelfuel_fuel_loaders{status=%q} %d\n", name, m.Statuses[name])
	}

	fmt.Fprintf(out, "# HELP voxelfuel_fuel_delivered_total Fuel moved into rockets, in fluid units.\n")
	fmt.Fprintf(out, "# TYPE voxelfuel_fuel_delivered_total counter\n")
	fmt.Fprintf(out, "voxelfuel_fuel_delivered_total %d\n", m.DeliveredTotal)

	fmt.Fprintf(out, "# HELP voxelfuel_fuel_intake_total Fuel drained from slot items into loader tanks, in fluid units.\n")
	fmt.Fprintf(out, "# TYPE voxelfuel_fuel_intake_total counter\n")
	fmt.Fprintf(out, "voxelfuel_fuel_intake_total %d\n", m.IntakeTotal)
}

func writeIndexMetrics(out io.Writer, s indexdb.Stats) {
	fmt.Fprintf(out, "# HELP voxelfuel_index_queue_depth Current sqlite index queue depth.\n")
	fmt.Fprintf(out, "# TYPE voxelfuel_index_queue_depth gauge\n")
	fmt.Fprintf(out, "voxelfuel_index_queue_depth %d\n", s.QueueDepth)

	fmt.Fprintf(out, "# HELP voxelfuel_index_dropped_total Index writes dropped because the queue was full.\n")
	fmt.Fprintf(out, "# TYPE voxelfuel_index_dropped_total counter\n")
	fmt.Fprintf(out, "voxelfuel_index_dropped_total{kind=\"tick\"} %d\n", s.DropTickTotal)
	fmt.Fprintf(out, "voxelfuel_index_dropped_total{kind=\"status\"} %d\n", s.DropStatusTotal)
	fmt.Fprintf(out, "voxelfuel_index_dropped_total{kind=\"snapshot\"} %d\n", s.DropSnapshotTotal)
}
