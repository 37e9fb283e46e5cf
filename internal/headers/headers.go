// Package headers implements a case-insensitive, standard/custom two-part
// header store: a small linear-scan pair list, which on the size of header
// sets typical of one HTTP message outperforms a real map and avoids its
// allocation overhead — split into two separate stores (standard slots plus
// a custom pair list) so standard entries always iterate before custom ones.
package headers

// pair is a custom (non-standard) header entry, preserving insertion order.
type pair struct {
	name, foldedName, value string
}

// Headers is the two-part header store: a fixed array indexed by the Standard
// enum, and an ordered list of custom pairs. Zero value is ready to use.
type Headers struct {
	standardSet [standardCount]bool
	standardVal [standardCount]string
	custom      []pair
}

// New returns an empty Headers, ready to use.
func New() *Headers {
	return &Headers{}
}

// Set stores value under name. If name folds to one of the standard enum
// entries, it's routed there (overwriting any previous value — standard slots
// hold at most one entry, invariant (iv) of spec.md §3); otherwise it's
// appended to (or updates) the custom list.
func (h *Headers) Set(name, value string) {
	if s, ok := LookupStandard(name); ok {
		h.standardSet[s] = true
		h.standardVal[s] = value
		return
	}

	folded := fold(name)
	for i := range h.custom {
		if h.custom[i].foldedName == folded {
			h.custom[i].value = value
			return
		}
	}

	h.custom = append(h.custom, pair{name: name, foldedName: folded, value: value})
}

// SetStandard is the fast path for components (the server, the router) that
// already know which standard slot they want, skipping the name fold.
func (h *Headers) SetStandard(s Standard, value string) {
	h.standardSet[s] = true
	h.standardVal[s] = value
}

// Get returns the value stored under name (case-insensitively) and whether it
// was present at all.
func (h *Headers) Get(name string) (string, bool) {
	if s, ok := LookupStandard(name); ok {
		return h.GetStandard(s)
	}

	folded := fold(name)
	for i := range h.custom {
		if h.custom[i].foldedName == folded {
			return h.custom[i].value, true
		}
	}

	return "", false
}

// GetStandard returns the value of the standard slot s.
func (h *Headers) GetStandard(s Standard) (string, bool) {
	return h.standardVal[s], h.standardSet[s]
}

// Value is a convenience wrapper around Get returning "" on a miss.
func (h *Headers) Value(name string) string {
	v, _ := h.Get(name)
	return v
}

// Has reports whether name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Delete removes name if present.
func (h *Headers) Delete(name string) {
	if s, ok := LookupStandard(name); ok {
		h.standardSet[s] = false
		h.standardVal[s] = ""
		return
	}

	folded := fold(name)
	for i := range h.custom {
		if h.custom[i].foldedName == folded {
			h.custom = append(h.custom[:i], h.custom[i+1:]...)
			return
		}
	}
}

// Pair is a single (name, value) entry yielded by Iter, in the order
// described by spec.md §3: all standard entries in enum order first, then
// custom entries in insertion order.
type Pair struct {
	Name, Value string
}

// Iter walks every stored header in standard-then-custom order.
func (h *Headers) Iter(yield func(Pair) bool) {
	for s := Standard(0); s < standardCount; s++ {
		if !h.standardSet[s] {
			continue
		}
		if !yield(Pair{Name: names[s], Value: h.standardVal[s]}) {
			return
		}
	}

	for _, p := range h.custom {
		if !yield(Pair{Name: p.name, Value: p.value}) {
			return
		}
	}
}

// Reset clears every entry while keeping the underlying custom slice's
// capacity; message.Message.Reset calls it.
func (h *Headers) Reset() {
	for s := range h.standardSet {
		h.standardSet[s] = false
		h.standardVal[s] = ""
	}
	h.custom = h.custom[:0]
}

// Len returns the total number of stored entries.
func (h *Headers) Len() int {
	n := 0
	for _, set := range h.standardSet {
		if set {
			n++
		}
	}
	return n + len(h.custom)
}
