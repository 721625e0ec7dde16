package layers

import "fmt"

// Handle is an opaque, generation-checked reference to a mask layer. A handle
// outlives its layer safely: once the layer is removed, every lookup with the
// old handle fails instead of reaching a recycled slot.
type Handle struct {
	slot uint32
	gen  uint32
}

// IsZero reports whether h was never issued by a scene
func (h Handle) IsZero() bool { return h.gen == 0 }

func (h Handle) String() string {
	if h.IsZero() {
		return "layer_none"
	}
	return fmt.Sprintf("layer_%d#%d", h.slot, h.gen)
}

type slot struct {
	gen   uint32
	layer *layer
}

// arena stores layers in reusable slots
type arena struct {
	slots []slot
	free  []uint32
}

func (a *arena) insert(l *layer) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.gen++
	s.layer = l
	return Handle{slot: idx, gen: s.gen}
}

func (a *arena) get(h Handle) (*layer, bool) {
	if h.IsZero() || int(h.slot) >= len(a.slots) {
		return nil, false
	}
	s := a.slots[h.slot]
	if s.gen != h.gen || s.layer == nil {
		return nil, false
	}
	return s.layer, true
}

func (a *arena) release(h Handle) bool {
	if _, ok := a.get(h); !ok {
		return false
	}
	a.slots[h.slot].layer = nil
	a.free = append(a.free, h.slot)
	return true
}

func (a *arena) reset() {
	for i := range a.slots {
		if a.slots[i].layer != nil {
			a.slots[i].layer = nil
			a.free = append(a.free, uint32(i))
		}
	}
}
