/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package annotation

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	applog "memeditor/internal/log"
)

// Snapshot is an immutable view of the collection. Items must not be modified.
type Snapshot struct {
	Version uint64
	Items   []Annotation
}

func (s Snapshot) Len() int { return len(s.Items) }

// Store owns the ordered annotation collection.
//
// Every mutation copies the collection, applies the change and publishes the
// copy as a new Snapshot, so readers see either the state before or after a
// mutation and never a partial one. Operations addressing an index that no
// longer exists are ignored and report false.
type Store struct {
	mu    sync.Mutex
	cur   atomic.Pointer[Snapshot]
	subs  map[int]func(Snapshot)
	subID int
	newID func() string
	log   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

// WithIDFunc overrides the ID generator (uuid v4 by default).
func WithIDFunc(fn func() string) Option { return func(s *Store) { s.newID = fn } }

func NewStore(opts ...Option) *Store {
	s := &Store{subs: make(map[int]func(Snapshot))}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = applog.WithComponent("annotation")
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	s.cur.Store(&Snapshot{})
	return s
}

// Snapshot returns the current published state.
func (s *Store) Snapshot() Snapshot { return *s.cur.Load() }

func (s *Store) Len() int { return len(s.cur.Load().Items) }

// At returns a copy of the annotation at i.
func (s *Store) At(i int) (Annotation, bool) {
	items := s.cur.Load().Items
	if i < 0 || i >= len(items) {
		return Annotation{}, false
	}
	return items[i], true
}

// IndexOf returns the current index of the annotation with the given ID, or -1.
func (s *Store) IndexOf(id string) int {
	for i, a := range s.cur.Load().Items {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// Subscribe registers fn to receive every post-mutation snapshot. Observers are
// called on the mutating goroutine after the store lock is released.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.subID
	s.subID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Create appends an annotation with empty text at pos. The new annotation is
// the focus target, so it shows the resize affordance and every other
// annotation hides it.
func (s *Store) Create(pos Position, style Style) int {
	a := Annotation{ID: s.newID(), Position: pos, Style: style, Resize: ResizeBoth}
	idx := -1
	s.publish(func(prev []Annotation) ([]Annotation, bool) {
		items := clone(prev)
		for i := range items {
			items[i].Resize = ResizeNone
		}
		idx = len(items)
		return append(items, a), true
	})
	s.log.Debug("annotation created", slog.Int("index", idx), slog.String("id", a.ID),
		slog.Float64("top", float64(pos.Top)), slog.Float64("left", float64(pos.Left)))
	return idx
}

// SetText replaces the text of the annotation at i.
func (s *Store) SetText(i int, text string) bool {
	return s.mutateAt("set_text", i, func(items []Annotation) []Annotation {
		items[i].Value = text
		return items
	})
}

// SetFocused shows the resize affordance on i and hides it everywhere else.
func (s *Store) SetFocused(i int) bool {
	return s.mutateAt("focus", i, func(items []Annotation) []Annotation {
		for j := range items {
			items[j].Resize = ResizeNone
		}
		items[i].Resize = ResizeBoth
		return items
	})
}

// SetBlurred hides the resize affordance on i and removes the annotation when
// currentText is empty. Both steps publish as a single mutation.
func (s *Store) SetBlurred(i int, currentText string) bool {
	removed := false
	ok := s.mutateAt("blur", i, func(items []Annotation) []Annotation {
		items[i].Resize = ResizeNone
		if currentText != "" {
			return items
		}
		removed = true
		return append(items[:i], items[i+1:]...)
	})
	if removed {
		s.log.Debug("empty annotation removed on blur", slog.Int("index", i))
	}
	return ok
}

// CommitDrag adds delta to the base offset and settles the live offset on it.
func (s *Store) CommitDrag(i int, delta Offset) bool {
	return s.mutateAt("commit_drag", i, func(items []Annotation) []Annotation {
		items[i].BaseOffset = items[i].BaseOffset.Add(delta)
		items[i].LiveOffset = items[i].BaseOffset
		return items
	})
}

// UpdateLiveOffset shows base offset + delta while a drag is in progress.
// The base offset is left untouched.
func (s *Store) UpdateLiveOffset(i int, delta Offset) bool {
	return s.mutateAt("live_offset", i, func(items []Annotation) []Annotation {
		items[i].LiveOffset = items[i].BaseOffset.Add(delta)
		return items
	})
}

// mutateAt applies fn to a private copy of the collection when i is in range.
func (s *Store) mutateAt(op string, i int, fn func([]Annotation) []Annotation) bool {
	return s.publish(func(prev []Annotation) ([]Annotation, bool) {
		if i < 0 || i >= len(prev) {
			s.log.Debug("stale index ignored", slog.String("op", op), slog.Int("index", i), slog.Int("len", len(prev)))
			return nil, false
		}
		return fn(clone(prev)), true
	})
}

// publish swaps in the collection returned by next and notifies observers.
// next runs under the store lock and must not modify prev.
func (s *Store) publish(next func(prev []Annotation) ([]Annotation, bool)) bool {
	s.mu.Lock()
	prev := s.cur.Load()
	items, ok := next(prev.Items)
	if !ok {
		s.mu.Unlock()
		return false
	}
	snap := &Snapshot{Version: prev.Version + 1, Items: items}
	s.cur.Store(snap)
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(*snap)
	}
	return true
}

func clone(items []Annotation) []Annotation {
	out := make([]Annotation, len(items), len(items)+1)
	copy(out, items)
	return out
}
