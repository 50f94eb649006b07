package item

import "fmt"

type Inventory struct {
	slots []Stack
}

func NewInventory(size int) *Inventory {
	return &Inventory{slots: make([]Stack, size)}
}

func (inv *Inventory) Len() int { return len(inv.slots) }

func (inv *Inventory) Get(slot int) Stack {
	if slot < 0 || slot >= len(inv.slots) {
		return nil
	}
	return inv.slots[slot]
}

func (inv *Inventory) Set(slot int, s Stack) error {
	if slot < 0 || slot >= len(inv.slots) {
		return fmt.Errorf("slot %d out of range [0,%d)", slot, len(inv.slots))
	}
	inv.slots[slot] = s
	return nil
}

func (inv *Inventory) Take(slot int) Stack {
	s := inv.Get(slot)
	if s != nil {
		inv.slots[slot] = nil
	}
	return s
}
