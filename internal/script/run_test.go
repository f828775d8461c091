package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"memeditor/internal/annotation"
	"memeditor/internal/editor"
)

func quietOptions() editor.Options {
	return editor.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func mustParse(t *testing.T, src string) Script {
	t.Helper()
	s, errs := Parse([]byte(src))
	if len(errs) != 0 {
		t.Fatalf("parse: %+v", errs)
	}
	return s
}

func TestReplaySample(t *testing.T) {
	s, err := ParseFile("testdata/captions.yaml")
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	snap, err := Replay(context.Background(), s, quietOptions())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if snap.Len() != 2 {
		t.Fatalf("expected 2 annotations, got %d", snap.Len())
	}
	top, bottom := snap.Items[0], snap.Items[1]
	if top.Position != (annotation.Position{Top: 50, Left: 80}) || top.Style.Color != "#000000" {
		t.Fatalf("unexpected top caption %+v", top)
	}
	if bottom.Value != "BOTTOM" || bottom.Position != (annotation.Position{Top: 20, Left: 30}) {
		t.Fatalf("unexpected bottom caption %+v", bottom)
	}
	if !bottom.Style.Bold || bottom.Style.FontSizePx != 24 || bottom.Style.Color != "#ff0000" {
		t.Fatalf("toolbar style not applied to later caption: %+v", bottom.Style)
	}
	if top.LiveOffset != top.BaseOffset || top.BaseOffset != (annotation.Offset{X: 30, Y: 45}) {
		t.Fatalf("drag not committed: %+v", top)
	}
}

// Two clicks before a render pass: with the "last" policy both transfers land
// on the newest annotation and the first one is never focused, so it is never
// blurred and stays behind empty.
func TestQueuedClicksFocusPolicy(t *testing.T) {
	src := `
focus_policy: %s
steps:
  - click: [0, 0]
  - click: [10, 10]
  - render
`
	last, err := Replay(context.Background(), mustParse(t, fmt.Sprintf(src, "last")), quietOptions())
	if err != nil {
		t.Fatalf("Replay last: %v", err)
	}
	if last.Len() != 2 || last.Items[0].Value != "" || last.Items[0].ResizeVisible() || !last.Items[1].ResizeVisible() {
		t.Fatalf("last policy: unexpected %+v", last.Items)
	}

	created, err := Replay(context.Background(), mustParse(t, fmt.Sprintf(src, "created")), quietOptions())
	if err != nil {
		t.Fatalf("Replay created: %v", err)
	}
	if created.Len() != 1 || created.Items[0].Position != (annotation.Position{Top: 10, Left: 10}) || !created.Items[0].ResizeVisible() {
		t.Fatalf("created policy: unexpected %+v", created.Items)
	}
}

func TestToggleOffMidDragFreezes(t *testing.T) {
	s := mustParse(t, `
steps:
  - click: [0, 0]
  - render
  - type: {index: 0, text: "x"}
  - drag_mode: true
  - down: {target: 0, at: [100, 100]}
  - move: [110, 120]
  - drag_mode: false
  - move: [200, 200]
  - up: [200, 200]
`)
	snap, err := Replay(context.Background(), s, quietOptions())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	a := snap.Items[0]
	if a.LiveOffset != (annotation.Offset{X: 10, Y: 20}) || a.BaseOffset != (annotation.Offset{}) {
		t.Fatalf("expected frozen live offset and no commit, got %+v", a)
	}
}

func TestCoalescedReplayFlushes(t *testing.T) {
	s := mustParse(t, `
coalesce: true
steps:
  - click: [0, 0]
  - render
  - type: {index: 0, text: "x"}
  - toggle_drag
  - down: {target: 0, at: [0, 0]}
  - move: [5, 5]
  - move: [7, 9]
  - expect: {len: 1}
  - flush
  - up: [7, 9]
  - expect: {index: 0, offset: [7, 9]}
`)
	if _, err := Replay(context.Background(), s, quietOptions()); err != nil {
		t.Fatalf("Replay: %v", err)
	}
}

func TestExpectationFailure(t *testing.T) {
	s := mustParse(t, `
steps:
  - click: [0, 0]
  - expect: {len: 2}
`)
	snap, err := Replay(context.Background(), s, quietOptions())
	if !errors.Is(err, ErrExpectation) {
		t.Fatalf("expected ErrExpectation, got %v", err)
	}
	if snap.Len() != 1 {
		t.Fatalf("snapshot at failure should be returned, len=%d", snap.Len())
	}
}

func TestStyleErrorStopsReplay(t *testing.T) {
	s := mustParse(t, `
steps:
  - style: {font: "Papyrus"}
  - click: [0, 0]
`)
	snap, err := Replay(context.Background(), s, quietOptions())
	if !errors.Is(err, editor.ErrUnknownFont) {
		t.Fatalf("expected ErrUnknownFont, got %v", err)
	}
	if snap.Len() != 0 {
		t.Fatalf("steps after the failure must not run")
	}
}

func TestReplayHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Replay(ctx, mustParse(t, "steps:\n  - click: [0, 0]\n"), quietOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
