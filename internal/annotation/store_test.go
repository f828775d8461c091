/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package annotation

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func newTestStore() *Store {
	n := 0
	return NewStore(
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDFunc(func() string { n++; return fmt.Sprintf("a%d", n) }),
	)
}

var arial16Red = Style{Color: "#ff0000", FontSizePx: 16, Bold: false, FontFamily: "Arial"}

func TestCreate_Scenario(t *testing.T) {
	s := newTestStore()
	idx := s.Create(Position{Top: 50, Left: 80}, arial16Red)
	if idx != 0 || s.Len() != 1 {
		t.Fatalf("expected one annotation at index 0, got idx=%d len=%d", idx, s.Len())
	}
	a, _ := s.At(0)
	if a.Position != (Position{Top: 50, Left: 80}) {
		t.Fatalf("unexpected position: %+v", a.Position)
	}
	if a.Style != arial16Red {
		t.Fatalf("unexpected style: %+v", a.Style)
	}
	if a.Value != "" || !a.ResizeVisible() {
		t.Fatalf("expected empty text and resize visible, got %+v", a)
	}
	if a.BaseOffset != (Offset{}) || a.LiveOffset != (Offset{}) {
		t.Fatalf("expected zero offsets, got %+v", a)
	}
	if a.ID != "a1" {
		t.Fatalf("unexpected id %q", a.ID)
	}
}

func TestCreate_PreservesCallOrder(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 25; i++ {
		if got := s.Create(Position{Top: float32(i)}, arial16Red); got != i {
			t.Fatalf("Create #%d returned index %d", i, got)
		}
	}
	if s.Len() != 25 {
		t.Fatalf("expected 25 annotations, got %d", s.Len())
	}
	for i, a := range s.Snapshot().Items {
		if a.Position.Top != float32(i) {
			t.Fatalf("annotation %d out of order: top=%v", i, a.Position.Top)
		}
	}
}

func TestCreate_MovesFocusAffordance(t *testing.T) {
	s := newTestStore()
	s.Create(Position{}, arial16Red)
	s.Create(Position{}, arial16Red)
	first, _ := s.At(0)
	second, _ := s.At(1)
	if first.ResizeVisible() || !second.ResizeVisible() {
		t.Fatalf("only the newest annotation should show resize: %v %v", first.Resize, second.Resize)
	}
}

func TestSetText(t *testing.T) {
	s := newTestStore()
	s.Create(Position{}, arial16Red)
	if !s.SetText(0, "hello") {
		t.Fatalf("SetText on valid index reported false")
	}
	if a, _ := s.At(0); a.Value != "hello" {
		t.Fatalf("text not applied: %q", a.Value)
	}
	// empty text is a valid transient state while typing
	s.SetText(0, "")
	if s.Len() != 1 {
		t.Fatalf("typing empty text must not delete")
	}
}

func TestSetFocused_IsExclusive(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 3; i++ {
		s.Create(Position{}, arial16Red)
	}
	s.SetFocused(0)
	visible := 0
	for i, a := range s.Snapshot().Items {
		if a.ResizeVisible() {
			visible++
			if i != 0 {
				t.Fatalf("unexpected focused index %d", i)
			}
		}
	}
	if visible != 1 {
		t.Fatalf("expected exactly one focused annotation, got %d", visible)
	}
}

func TestSetBlurred_NonEmptyKeepsAnnotation(t *testing.T) {
	s := newTestStore()
	s.Create(Position{}, arial16Red)
	s.SetText(0, "keep")
	s.SetBlurred(0, "keep")
	if s.Len() != 1 {
		t.Fatalf("expected length unchanged, got %d", s.Len())
	}
	if a, _ := s.At(0); a.ResizeVisible() {
		t.Fatalf("blur should hide resize affordance")
	}
}

func TestSetBlurred_EmptyRemovesAndShifts(t *testing.T) {
	s := newTestStore()
	s.Create(Position{Top: 1, Left: 1}, arial16Red)
	bold := Style{Color: "#00ff00", FontSizePx: 24, Bold: true, FontFamily: "Courier New"}
	s.Create(Position{Top: 2, Left: 2}, bold)
	s.SetText(1, "second")
	s.CommitDrag(1, Offset{X: 5, Y: 6})
	before, _ := s.At(1)

	s.SetBlurred(0, "")
	if s.Len() != 1 {
		t.Fatalf("expected one annotation after blur-delete, got %d", s.Len())
	}
	after, _ := s.At(0)
	if after != before {
		t.Fatalf("shifted annotation changed: before %+v after %+v", before, after)
	}
}

func TestSetBlurred_PublishesOnce(t *testing.T) {
	s := newTestStore()
	s.Create(Position{}, arial16Red)
	var seen []Snapshot
	cancel := s.Subscribe(func(sn Snapshot) { seen = append(seen, sn) })
	defer cancel()
	s.SetBlurred(0, "")
	if len(seen) != 1 || seen[0].Len() != 0 {
		t.Fatalf("expected a single post-deletion snapshot, got %+v", seen)
	}
}

func TestCommitDrag(t *testing.T) {
	s := newTestStore()
	s.Create(Position{}, arial16Red)
	s.CommitDrag(0, Offset{X: 10, Y: 20})
	s.CommitDrag(0, Offset{X: 5, Y: -5})
	a, _ := s.At(0)
	want := Offset{X: 15, Y: 15}
	if a.BaseOffset != want || a.LiveOffset != want {
		t.Fatalf("expected base=live=%+v, got base=%+v live=%+v", want, a.BaseOffset, a.LiveOffset)
	}
	if a.Dragging() {
		t.Fatalf("committed annotation should not report dragging")
	}
}

func TestUpdateLiveOffset_NeverTouchesBase(t *testing.T) {
	s := newTestStore()
	s.Create(Position{Top: 10, Left: 10}, arial16Red)
	s.CommitDrag(0, Offset{X: 1, Y: 1})
	for _, d := range []Offset{{3, 4}, {30, 45}, {-2, 0}} {
		s.UpdateLiveOffset(0, d)
		a, _ := s.At(0)
		if a.BaseOffset != (Offset{X: 1, Y: 1}) {
			t.Fatalf("base offset changed by live update: %+v", a.BaseOffset)
		}
		if a.LiveOffset != (Offset{X: 1 + d.X, Y: 1 + d.Y}) {
			t.Fatalf("live offset = %+v for delta %+v", a.LiveOffset, d)
		}
	}
	a, _ := s.At(0)
	if r := a.Rendered(); r.Top != 10+1+0 || r.Left != 10+1-2 {
		t.Fatalf("unexpected rendered position: %+v", r)
	}
}

func TestStaleIndex_NoChangeNoPanic(t *testing.T) {
	s := newTestStore()
	s.Create(Position{}, arial16Red)
	s.SetText(0, "x")
	before := s.Snapshot()
	for _, i := range []int{-1, 1, 99} {
		if s.SetText(i, "y") || s.SetFocused(i) || s.SetBlurred(i, "") ||
			s.CommitDrag(i, Offset{X: 1}) || s.UpdateLiveOffset(i, Offset{Y: 1}) {
			t.Fatalf("operation on stale index %d reported success", i)
		}
	}
	after := s.Snapshot()
	if after.Version != before.Version || after.Len() != 1 || after.Items[0] != before.Items[0] {
		t.Fatalf("stale operations changed the collection")
	}
	if _, ok := s.At(5); ok {
		t.Fatalf("At out of range should report false")
	}
}

func TestSnapshotsAreImmutable(t *testing.T) {
	s := newTestStore()
	s.Create(Position{}, arial16Red)
	old := s.Snapshot()
	s.SetText(0, "changed")
	s.Create(Position{}, arial16Red)
	if old.Items[0].Value != "" || old.Len() != 1 {
		t.Fatalf("previous snapshot was mutated: %+v", old.Items)
	}
	if s.Snapshot().Version <= old.Version {
		t.Fatalf("version did not advance")
	}
}

func TestSubscribeCancel(t *testing.T) {
	s := newTestStore()
	calls := 0
	cancel := s.Subscribe(func(Snapshot) { calls++ })
	s.Create(Position{}, arial16Red)
	cancel()
	s.Create(Position{}, arial16Red)
	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
}

func TestIndexOf(t *testing.T) {
	s := newTestStore()
	s.Create(Position{}, arial16Red)
	s.Create(Position{}, arial16Red)
	if s.IndexOf("a2") != 1 {
		t.Fatalf("IndexOf(a2) = %d", s.IndexOf("a2"))
	}
	s.SetBlurred(0, "")
	if s.IndexOf("a2") != 0 || s.IndexOf("a1") != -1 {
		t.Fatalf("IndexOf after deletion: a2=%d a1=%d", s.IndexOf("a2"), s.IndexOf("a1"))
	}
}
