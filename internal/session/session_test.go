package session

import "testing"

func TestPager_Walk(t *testing.T) {
	p := NewPager([]string{"a", "b", "c"})

	if p.Complete() {
		t.Fatal("fresh pager should not be complete")
	}
	item, ok := p.Current()
	if !ok || item != "a" {
		t.Fatalf("Current: %q %v", item, ok)
	}

	p.Advance()
	p.Advance()
	if pos, total := p.Progress(); pos != 3 || total != 3 {
		t.Fatalf("Progress: %d/%d", pos, total)
	}

	p.Previous()
	item, _ = p.Current()
	if item != "b" {
		t.Fatalf("after Previous: %q", item)
	}

	p.Advance()
	p.Advance()
	if !p.Complete() {
		t.Fatal("should be complete after advancing past the end")
	}
	if _, ok := p.Current(); ok {
		t.Fatal("Current past the end should report !ok")
	}

	// Advancing past the end is a no-op, not a panic.
	p.Advance()
	if pos, _ := p.Progress(); pos != 3 {
		t.Fatalf("Progress capped: %d", pos)
	}

	p.Reset()
	item, _ = p.Current()
	if item != "a" || p.Complete() {
		t.Fatalf("after Reset: %q complete=%v", item, p.Complete())
	}
}

func TestPager_Empty(t *testing.T) {
	var p Pager[int]
	if !p.Complete() {
		t.Fatal("empty pager is trivially complete")
	}
	if _, ok := p.Current(); ok {
		t.Fatal("empty pager has no current item")
	}
}
