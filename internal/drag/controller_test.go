/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"memeditor/internal/annotation"
	"memeditor/internal/geom"
	"memeditor/internal/pointer"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func setup(t *testing.T, n int, opts ...Option) (*annotation.Store, *Controller, *pointer.Bus) {
	t.Helper()
	s := annotation.NewStore(annotation.WithLogger(quiet()))
	for i := 0; i < n; i++ {
		s.Create(annotation.Position{Top: float32(10 * i), Left: 5}, annotation.Style{Color: "#000000", FontSizePx: 16, FontFamily: "Arial"})
		s.SetText(i, fmt.Sprintf("t%d", i))
	}
	c := NewController(s, append([]Option{WithLogger(quiet())}, opts...)...)
	bus := pointer.NewBus()
	if err := c.Mount(bus); err != nil {
		t.Fatalf("mount: %v", err)
	}
	t.Cleanup(c.Unmount)
	return s, c, bus
}

func press(bus *pointer.Bus, target int, x, y float32) {
	bus.Dispatch(pointer.Event{Kind: pointer.Down, Target: target, Pos: geom.Pt{X: x, Y: y}})
}
func move(bus *pointer.Bus, x, y float32) {
	bus.Dispatch(pointer.Event{Kind: pointer.Move, Target: pointer.NoTarget, Pos: geom.Pt{X: x, Y: y}})
}
func release(bus *pointer.Bus, x, y float32) {
	bus.Dispatch(pointer.Event{Kind: pointer.Up, Target: pointer.NoTarget, Pos: geom.Pt{X: x, Y: y}})
}

func TestDragScenario(t *testing.T) {
	s, c, bus := setup(t, 2)
	c.SetEnabled(true)

	press(bus, 1, 100, 100)
	if sess := c.Session(); sess.State != Dragging || sess.Active != 1 {
		t.Fatalf("expected dragging annotation 1, got %+v", sess)
	}
	move(bus, 130, 145)
	a, _ := s.At(1)
	if a.LiveOffset != (annotation.Offset{X: 30, Y: 45}) {
		t.Fatalf("live offset during move = %+v", a.LiveOffset)
	}
	if a.BaseOffset != (annotation.Offset{}) {
		t.Fatalf("base offset changed during move: %+v", a.BaseOffset)
	}
	release(bus, 130, 145)
	a, _ = s.At(1)
	want := annotation.Offset{X: 30, Y: 45}
	if a.BaseOffset != want || a.LiveOffset != want {
		t.Fatalf("after release base=%+v live=%+v, want both %+v", a.BaseOffset, a.LiveOffset, want)
	}
	if c.Session().State != Idle {
		t.Fatalf("expected idle after release")
	}
	if other, _ := s.At(0); other.BaseOffset != (annotation.Offset{}) || other.LiveOffset != (annotation.Offset{}) {
		t.Fatalf("annotation 0 must not move: %+v", other)
	}
}

func TestSecondGestureAccumulates(t *testing.T) {
	s, c, bus := setup(t, 1)
	c.SetEnabled(true)
	press(bus, 0, 0, 0)
	move(bus, 10, 10)
	release(bus, 10, 10)
	press(bus, 0, 50, 50)
	move(bus, 45, 70)
	a, _ := s.At(0)
	if a.LiveOffset != (annotation.Offset{X: 5, Y: 30}) {
		t.Fatalf("live offset = %+v", a.LiveOffset)
	}
	release(bus, 45, 70)
	a, _ = s.At(0)
	if a.BaseOffset != (annotation.Offset{X: 5, Y: 30}) {
		t.Fatalf("base offset = %+v", a.BaseOffset)
	}
}

func TestToggleOffMidDragFreezes(t *testing.T) {
	s, c, bus := setup(t, 1)
	c.SetEnabled(true)
	press(bus, 0, 100, 100)
	move(bus, 110, 120)
	c.SetEnabled(false)
	move(bus, 300, 300)
	a, _ := s.At(0)
	if a.LiveOffset != (annotation.Offset{X: 10, Y: 20}) {
		t.Fatalf("disabled move changed live offset: %+v", a.LiveOffset)
	}
	release(bus, 300, 300)
	if c.Session().State != Dragging {
		t.Fatalf("disabled release must not reset the session")
	}
	a, _ = s.At(0)
	if a.BaseOffset != (annotation.Offset{}) || a.LiveOffset != (annotation.Offset{X: 10, Y: 20}) {
		t.Fatalf("disabled release must not commit or revert: %+v", a)
	}
}

func TestDisabledIgnoresEverything(t *testing.T) {
	s, c, bus := setup(t, 1)
	press(bus, 0, 0, 0)
	move(bus, 40, 40)
	release(bus, 40, 40)
	if c.Session().State != Idle || c.Session().Active != NoActive {
		t.Fatalf("session changed while disabled: %+v", c.Session())
	}
	if a, _ := s.At(0); a.LiveOffset != (annotation.Offset{}) {
		t.Fatalf("offset changed while disabled: %+v", a.LiveOffset)
	}
}

func TestBackgroundPressMovesNothing(t *testing.T) {
	s, c, bus := setup(t, 2)
	c.SetEnabled(true)
	press(bus, pointer.NoTarget, 0, 0)
	move(bus, 20, 20)
	release(bus, 20, 20)
	for i, a := range s.Snapshot().Items {
		if a.BaseOffset != (annotation.Offset{}) || a.LiveOffset != (annotation.Offset{}) {
			t.Fatalf("annotation %d moved by background drag: %+v", i, a)
		}
	}
}

func TestActiveDeletedMidDrag(t *testing.T) {
	s, c, bus := setup(t, 2)
	c.SetEnabled(true)
	press(bus, 1, 0, 0)
	s.SetBlurred(0, "")
	s.SetBlurred(0, "")
	move(bus, 10, 10)
	release(bus, 10, 10)
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
}

func TestTargetPressStopsBackground(t *testing.T) {
	_, c, bus := setup(t, 1)
	c.SetEnabled(true)
	bg := 0
	bus.OnBackground(func(pointer.Event) bool { bg++; return false })
	press(bus, 0, 1, 1)
	if bg != 0 {
		t.Fatalf("press on annotation reached background")
	}
	press(bus, pointer.NoTarget, 1, 1)
	if bg != 1 {
		t.Fatalf("background press not delivered")
	}
}

func TestCoalescingAppliesNewestOnFlush(t *testing.T) {
	s, c, bus := setup(t, 1, WithCoalescing())
	c.SetEnabled(true)
	var versions []uint64
	cancel := s.Subscribe(func(sn annotation.Snapshot) { versions = append(versions, sn.Version) })
	defer cancel()

	press(bus, 0, 0, 0)
	move(bus, 1, 1)
	move(bus, 2, 2)
	move(bus, 7, 9)
	if len(versions) != 0 {
		t.Fatalf("moves applied before flush: %v", versions)
	}
	if !c.Flush() {
		t.Fatalf("expected pending move to flush")
	}
	if c.Flush() {
		t.Fatalf("second flush should have nothing to apply")
	}
	a, _ := s.At(0)
	if a.LiveOffset != (annotation.Offset{X: 7, Y: 9}) || len(versions) != 1 {
		t.Fatalf("live=%+v updates=%d", a.LiveOffset, len(versions))
	}
	move(bus, 12, 3)
	release(bus, 12, 3) // release flushes the pending move first
	a, _ = s.At(0)
	if a.BaseOffset != (annotation.Offset{X: 12, Y: 3}) {
		t.Fatalf("base offset after release = %+v", a.BaseOffset)
	}
}

func TestMountTwiceAndUnmount(t *testing.T) {
	s := annotation.NewStore(annotation.WithLogger(quiet()))
	c := NewController(s, WithLogger(quiet()))
	bus := pointer.NewBus()
	if err := c.Mount(bus); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if err := c.Mount(bus); !errors.Is(err, ErrAlreadyMounted) {
		t.Fatalf("second mount err = %v", err)
	}
	c.Unmount()
	if bus.Listeners() != 0 {
		t.Fatalf("listeners leaked after unmount: %d", bus.Listeners())
	}
	if err := c.Mount(bus); err != nil {
		t.Fatalf("remount after unmount: %v", err)
	}
	c.Unmount()
}

func TestRunFrames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var ticks atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- RunFrames(ctx, time.Millisecond, func(f func()) { f() }, func() {
			if ticks.Add(1) == 3 {
				cancel()
			}
		})
	}()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("RunFrames err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("RunFrames did not stop")
	}
	if ticks.Load() < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", ticks.Load())
	}
}
