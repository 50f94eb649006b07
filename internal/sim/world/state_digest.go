package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// stateDigest hashes loader, pad and rocket state in a fixed order so two
// runs fed the same commands produce the same digest per tick.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	for _, p := range w.loaderPositions() {
		l := w.loaders[p]
		digestWriteI64(h, &tmp, p.Pack())
		h.Write([]byte{byte(l.Status())})
		digestWriteI64(h, &tmp, l.Energy.Stored)
		h.Write([]byte(l.Tank.Fluid()))
		digestWriteI64(h, &tmp, int64(l.Tank.Amount()))
		if c, ok := l.Connection(); ok {
			h.Write([]byte{1})
			digestWriteI64(h, &tmp, c.Pack())
		} else {
			h.Write([]byte{0})
		}
		for i := 0; i < l.Inventory.Len(); i++ {
			if s := l.Inventory.Get(i); s != nil {
				h.Write([]byte(s.ItemID()))
				digestWriteU64(h, &tmp, uint64(s.Count()))
			}
			h.Write([]byte{0})
		}
	}

	ids := make([]string, 0, len(w.rockets))
	for id := range w.rockets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r := w.rockets[id]
		h.Write([]byte(id))
		h.Write([]byte{0})
		digestWriteI64(h, &tmp, int64(r.Tank.Amount()))
		if r.Pad != nil {
			digestWriteI64(h, &tmp, r.Pad.Pack())
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}
