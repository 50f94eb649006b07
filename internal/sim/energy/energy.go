package energy

// Source is implemented by items that hold extractable charge.
type Source interface {
	ExtractEnergy(max int64, simulate bool) int64
}

type Buffer struct {
	Stored   int64
	Capacity int64
}

func (b *Buffer) Space() int64 {
	s := b.Capacity - b.Stored
	if s < 0 {
		return 0
	}
	return s
}

func (b *Buffer) Has(n int64) bool { return b.Stored >= n }

func (b *Buffer) Insert(n int64) int64 {
	if n <= 0 {
		return 0
	}
	if s := b.Space(); n > s {
		n = s
	}
	b.Stored += n
	return n
}

// Consume removes n if the buffer holds at least n.
func (b *Buffer) Consume(n int64) bool {
	if n <= 0 {
		return true
	}
	if b.Stored < n {
		return false
	}
	b.Stored -= n
	return true
}

// ChargeFrom moves charge from src into the buffer, at most limit per call
// (limit <= 0 means only the free space bounds it).
func (b *Buffer) ChargeFrom(src Source, limit int64) int64 {
	if src == nil {
		return 0
	}
	want := b.Space()
	if limit > 0 && limit < want {
		want = limit
	}
	if want <= 0 {
		return 0
	}
	got := src.ExtractEnergy(want, false)
	return b.Insert(got)
}
