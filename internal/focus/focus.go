/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package focus defers input-focus transfer to newly created annotations until
// after the host has rendered them.
package focus

import (
	"fmt"
	"strings"
	"sync"
)

// Policy decides which annotation a deferred transfer lands on.
type Policy uint8

const (
	// TargetLast focuses whatever annotation is last when the callback fires.
	// Several creations queued before a render all land on the same, newest
	// annotation.
	TargetLast Policy = iota
	// TargetCreated focuses the annotation the callback was queued for, if it
	// still exists.
	TargetCreated
)

func (p Policy) String() string {
	if p == TargetCreated {
		return "created"
	}
	return "last"
}

// ParsePolicy accepts "last" or "created" (case-insensitive); empty means last.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last":
		return TargetLast, nil
	case "created":
		return TargetCreated, nil
	}
	return TargetLast, fmt.Errorf("unknown focus policy %q", s)
}

// Queue holds callbacks until the next Drain. There is no cancellation.
type Queue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *Queue) Defer(fn func()) {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
}

func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fns)
}

// Drain runs queued callbacks in FIFO order and returns how many ran.
// Callbacks queued while draining run on the next Drain.
func (q *Queue) Drain() int {
	q.mu.Lock()
	fns := q.fns
	q.fns = nil
	q.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Resolver maps the policy to an index at fire time.
type Resolver interface {
	Len() int
	IndexOf(id string) int
}

// Transfer queues a focus transfer for the annotation createdID.
func Transfer(q *Queue, r Resolver, p Policy, createdID string, focus func(index int)) {
	q.Defer(func() {
		idx := -1
		switch p {
		case TargetCreated:
			idx = r.IndexOf(createdID)
		default:
			idx = r.Len() - 1
		}
		if idx >= 0 {
			focus(idx)
		}
	})
}
