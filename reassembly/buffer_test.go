package reassembly

import (
	"testing"

	"github.com/brokenhouse/dronecore/core"
)

func TestInsertOutOfOrderCompletes(t *testing.T) {
	b := New()
	if b.Insert(7, core.Fragment{Index: 1, Total: 2, Payload: []byte("b")}) {
		t.Fatal("should not be complete after first fragment")
	}
	if !b.Insert(7, core.Fragment{Index: 0, Total: 2, Payload: []byte("a")}) {
		t.Fatal("should be complete after second fragment")
	}
	slots, ok := b.Take(7)
	if !ok || len(slots) != 2 {
		t.Fatalf("Take(7) = %v, %v", slots, ok)
	}
	if string(slots[0].Payload) != "a" || string(slots[1].Payload) != "b" {
		t.Fatalf("slots out of order: %q %q", slots[0].Payload, slots[1].Payload)
	}
}

func TestDuplicateInsertIgnored(t *testing.T) {
	b := New()
	b.Insert(7, core.Fragment{Index: 0, Total: 2, Payload: []byte("first")})
	b.Insert(7, core.Fragment{Index: 0, Total: 2, Payload: []byte("second")})
	complete := b.Insert(7, core.Fragment{Index: 1, Total: 2, Payload: []byte("b")})
	if !complete {
		t.Fatal("expected completion")
	}
	slots, _ := b.Take(7)
	if string(slots[0].Payload) != "first" {
		t.Fatalf("duplicate insert should not overwrite: got %q", slots[0].Payload)
	}
}

func TestTakeUnknownSessionFails(t *testing.T) {
	b := New()
	if _, ok := b.Take(42); ok {
		t.Fatal("Take on unknown session should fail")
	}
}
