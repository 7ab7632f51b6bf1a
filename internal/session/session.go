// Package session provides the shared paging skeleton for the two
// human-in-the-loop review flows (conflict resolution and error
// correction). Both present items one at a time, move forward and
// backward, and support a full reset; keeping that shape in one place
// stops the two wizards drifting apart.
package session

// Pager walks a fixed list of items one at a time. The zero value is
// complete over an empty list.
type Pager[T any] struct {
	items []T
	index int
}

// NewPager returns a Pager positioned on the first item.
func NewPager[T any](items []T) *Pager[T] {
	return &Pager[T]{items: items}
}

// Current returns the item under review. ok is false once the pager
// has advanced past the final item.
func (p *Pager[T]) Current() (item T, ok bool) {
	if p.index >= len(p.items) {
		var zero T
		return zero, false
	}
	return p.items[p.index], true
}

// Advance moves to the next item.
func (p *Pager[T]) Advance() {
	if p.index < len(p.items) {
		p.index++
	}
}

// Previous rewinds one item. Rewinding does not discard anything the
// caller committed for later items.
func (p *Pager[T]) Previous() {
	if p.index > 0 {
		p.index--
	}
}

// Reset returns to the first item.
func (p *Pager[T]) Reset() {
	p.index = 0
}

// Progress reports the 1-based position and total count. Position is
// capped at the total once the pager is complete.
func (p *Pager[T]) Progress() (pos, total int) {
	pos = p.index + 1
	if pos > len(p.items) {
		pos = len(p.items)
	}
	return pos, len(p.items)
}

// Complete reports whether every item has been advanced past.
func (p *Pager[T]) Complete() bool {
	return p.index >= len(p.items)
}

// Len returns the number of items.
func (p *Pager[T]) Len() int { return len(p.items) }
