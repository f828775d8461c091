/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pointer routes pointer events from the host surface to listeners in
// three fixed phases: target, background, document.
//
// Target handlers run first and only for events that hit an annotation.
// A target handler returning true stops propagation to the background phase,
// so pressing on an annotation never reaches the image underneath it.
// Document handlers always run last, whatever the target phase returned.
package pointer

import (
	"fmt"
	"sync"

	"memeditor/internal/geom"
)

type Kind uint8

const (
	Down Kind = iota
	Move
	Up
	Click
)

func (k Kind) String() string {
	switch k {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	case Click:
		return "click"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// NoTarget marks events that did not hit an annotation.
const NoTarget = -1

// Event is a pointer event in page coordinates. Target is the index of the
// annotation under the pointer, or NoTarget.
type Event struct {
	Kind   Kind
	Pos    geom.Pt
	Target int
}

// Handler processes an event. The return value is only consulted in the
// target phase, where true stops propagation.
type Handler func(Event) bool

type phase uint8

const (
	phaseTarget phase = iota
	phaseBackground
	phaseDocument
	phaseCount
)

type entry struct {
	id int
	h  Handler
}

// Bus is safe for concurrent registration; dispatch runs handlers on the caller's goroutine.
type Bus struct {
	mu     sync.Mutex
	nextID int
	phases [phaseCount][]entry
}

func NewBus() *Bus { return &Bus{} }

// OnTarget registers h for the target phase and returns its release func.
func (b *Bus) OnTarget(h Handler) func() { return b.add(phaseTarget, h) }

// OnBackground registers h for events that were not stopped by a target handler.
func (b *Bus) OnBackground(h Handler) func() { return b.add(phaseBackground, h) }

// OnDocument registers a process-wide listener that sees every event.
func (b *Bus) OnDocument(h Handler) func() { return b.add(phaseDocument, h) }

func (b *Bus) add(p phase, h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.phases[p] = append(b.phases[p], entry{id: id, h: h})
	b.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { b.remove(p, id) }) }
}

func (b *Bus) remove(p phase, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.phases[p]
	for i, e := range list {
		if e.id == id {
			b.phases[p] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Listeners returns the number of registered handlers across all phases.
func (b *Bus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, l := range b.phases {
		n += len(l)
	}
	return n
}

// Dispatch delivers ev and reports whether a target handler stopped propagation.
// Handlers are invoked in registration order within a phase.
func (b *Bus) Dispatch(ev Event) (stopped bool) {
	target, background, document := b.handlers()
	if ev.Target >= 0 {
		for _, h := range target {
			if h(ev) {
				stopped = true
			}
		}
	}
	if !stopped {
		for _, h := range background {
			h(ev)
		}
	}
	for _, h := range document {
		h(ev)
	}
	return stopped
}

func (b *Bus) handlers() (target, background, document []Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	collect := func(p phase) []Handler {
		out := make([]Handler, len(b.phases[p]))
		for i, e := range b.phases[p] {
			out[i] = e.h
		}
		return out
	}
	return collect(phaseTarget), collect(phaseBackground), collect(phaseDocument)
}
