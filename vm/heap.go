package vm

const DefaultMaxHeap = 1024

// Heap is an append-only arena of blocks. Each block is one BlockSize(n)
// slot followed by n payload slots; a HeapAddr points at the size slot.
type Heap struct {
	data []Value

	limit int
}

type HeapOpt func(*Heap) *Heap

func MaxHeap(max int) HeapOpt {
	return func(h *Heap) *Heap {
		h.limit = max
		return h
	}
}

func NewHeap(opts ...HeapOpt) *Heap {
	h := &Heap{
		limit: DefaultMaxHeap,
	}
	for _, opt := range opts {
		h = opt(h)
	}
	h.data = make([]Value, 0)
	return h
}

// Alloc appends a block of n copies of fill and returns its address.
// Nothing is appended when the block would not fit.
func (h *Heap) Alloc(n int32, fill Value) (Value, error) {
	if n < 0 {
		return Value{}, faultf(ErrInvalidSize, "negative block size %d", n)
	}
	if len(h.data)+1+int(n) > h.limit {
		return Value{}, faultf(ErrHeapOverflow, "block of %d needs %d slots, heap has %d of %d",
			n, int(n)+1, len(h.data), h.limit)
	}
	base := len(h.data)
	h.data = append(h.data, BlockSize(n))
	for i := int32(0); i < n; i++ {
		h.data = append(h.data, fill)
	}
	return HeapAddr(base), nil
}

// Load returns element idx of the block at addr.
func (h *Heap) Load(addr Value, idx int32) (Value, error) {
	slot, err := h.slot(addr, idx)
	if err != nil {
		return Value{}, err
	}
	return h.data[slot], nil
}

// Store overwrites element idx of the block at addr.
func (h *Heap) Store(addr Value, idx int32, v Value) error {
	slot, err := h.slot(addr, idx)
	if err != nil {
		return err
	}
	h.data[slot] = v
	return nil
}

// slot resolves addr and idx to an index into data, skipping the size slot.
func (h *Heap) slot(addr Value, idx int32) (int, error) {
	base, ok := addr.AsHeapAddr()
	if !ok {
		return 0, typeMismatch(KindHeapAddr, addr)
	}
	if base < 0 || base >= len(h.data) {
		return 0, faultf(ErrIndexOutOfBounds, "heap address %d outside heap of %d", base, len(h.data))
	}
	size, ok := h.data[base].AsBlockSize()
	if !ok {
		return 0, faultf(ErrIndexOutOfBounds, "heap address %d is not a block", base)
	}
	if idx < 0 || idx >= size {
		return 0, faultf(ErrIndexOutOfBounds, "index %d outside block of %d at %d", idx, size, base)
	}
	return base + int(idx) + 1, nil
}

func (h *Heap) Len() int {
	return len(h.data)
}

// Values returns a copy of the heap.
func (h *Heap) Values() []Value {
	out := make([]Value, len(h.data))
	copy(out, h.data)
	return out
}
