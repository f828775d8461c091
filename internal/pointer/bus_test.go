package pointer

import (
	"reflect"
	"testing"

	"memeditor/internal/geom"
)

func TestDispatchOrder_TargetBeforeDocument(t *testing.T) {
	b := NewBus()
	var order []string
	b.OnDocument(func(Event) bool { order = append(order, "document"); return false })
	b.OnBackground(func(Event) bool { order = append(order, "background"); return false })
	b.OnTarget(func(Event) bool { order = append(order, "target"); return false })

	b.Dispatch(Event{Kind: Down, Target: 0})
	want := []string{"target", "background", "document"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestStopPropagation_SkipsBackgroundOnly(t *testing.T) {
	b := NewBus()
	var bg, doc int
	b.OnTarget(func(Event) bool { return true })
	b.OnBackground(func(Event) bool { bg++; return false })
	b.OnDocument(func(Event) bool { doc++; return false })

	if !b.Dispatch(Event{Kind: Down, Pos: geom.Pt{X: 1, Y: 2}, Target: 3}) {
		t.Fatalf("expected stopped=true")
	}
	if bg != 0 || doc != 1 {
		t.Fatalf("background=%d document=%d, want 0 and 1", bg, doc)
	}
}

func TestNoTarget_SkipsTargetPhase(t *testing.T) {
	b := NewBus()
	called := false
	b.OnTarget(func(Event) bool { called = true; return true })
	bg := 0
	b.OnBackground(func(Event) bool { bg++; return false })
	if b.Dispatch(Event{Kind: Click, Target: NoTarget}) {
		t.Fatalf("background event must not report stopped")
	}
	if called || bg != 1 {
		t.Fatalf("target called=%v background=%d", called, bg)
	}
}

func TestReleaseRemovesListener(t *testing.T) {
	b := NewBus()
	r1 := b.OnDocument(func(Event) bool { return false })
	r2 := b.OnTarget(func(Event) bool { return false })
	if b.Listeners() != 2 {
		t.Fatalf("expected 2 listeners, got %d", b.Listeners())
	}
	r1()
	r1() // idempotent
	r2()
	if b.Listeners() != 0 {
		t.Fatalf("expected no listeners after release, got %d", b.Listeners())
	}
}

func TestHandlerMayReleaseDuringDispatch(t *testing.T) {
	b := NewBus()
	var release func()
	n := 0
	release = b.OnDocument(func(Event) bool { n++; release(); return false })
	b.Dispatch(Event{Kind: Move})
	b.Dispatch(Event{Kind: Move})
	if n != 1 {
		t.Fatalf("expected handler to run once, ran %d times", n)
	}
}

func TestKindString(t *testing.T) {
	if Down.String() != "down" || Click.String() != "click" || Kind(9).String() != "kind(9)" {
		t.Fatalf("unexpected kind strings")
	}
}
