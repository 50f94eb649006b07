package fuelloader

import (
	"encoding/json"
	"math"

	"voxelfuel.ai/internal/sim/geom"
)

// Tag is the loader's own persisted record. Inventory, tank and energy are
// saved by the world snapshot alongside it.
type Tag map[string]any

const (
	tagHasConnection = "has_connection"
	tagConnectionPos = "connection_pos"
)

func (l *Loader) WriteTag(tag Tag) {
	tag[tagHasConnection] = l.connection != nil
	if l.connection != nil {
		tag[tagConnectionPos] = l.connection.Pack()
	} else {
		delete(tag, tagConnectionPos)
	}
}

// ReadTag restores the connection. A record that claims a connection but has
// no usable position loads as unconnected.
func (l *Loader) ReadTag(tag Tag) {
	l.connection = nil
	has, _ := tag[tagHasConnection].(bool)
	if !has {
		return
	}
	v, ok := asInt64(tag[tagConnectionPos])
	if !ok {
		return
	}
	p := geom.Unpack(v)
	l.connection = &p
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
