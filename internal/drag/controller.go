/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package drag converts pointer motion into annotation offsets while drag
// mode is enabled.
package drag

import (
	"errors"
	"log/slog"

	"memeditor/internal/annotation"
	"memeditor/internal/geom"
	applog "memeditor/internal/log"
	"memeditor/internal/pointer"
)

// Updater is the part of the annotation store the controller writes to.
type Updater interface {
	UpdateLiveOffset(i int, delta annotation.Offset) bool
	CommitDrag(i int, delta annotation.Offset) bool
}

type State uint8

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// NoActive means no annotation has been selected for the current gesture.
const NoActive = -1

// Session is the bookkeeping of one drag gesture.
type Session struct {
	State  State
	Active int
	Start  geom.Pt
	Delta  annotation.Offset
}

var ErrAlreadyMounted = errors.New("drag controller already mounted")

// Controller is not safe for concurrent use; the host calls it from its
// event goroutine only.
type Controller struct {
	store   Updater
	enabled bool
	sess    Session

	coalesce bool
	pending  *geom.Pt

	release []func()
	log     *slog.Logger
}

type Option func(*Controller)

// WithCoalescing buffers moves until Flush, keeping only the newest position.
func WithCoalescing() Option { return func(c *Controller) { c.coalesce = true } }

func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.log = l } }

func NewController(store Updater, opts ...Option) *Controller {
	c := &Controller{store: store, sess: Session{Active: NoActive}}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = applog.WithComponent("drag")
	}
	return c
}

// SetEnabled gates every transition. Turning drag off mid-gesture freezes the
// visible offset without reverting it or resetting the session.
func (c *Controller) SetEnabled(v bool) {
	c.enabled = v
	c.log.Debug("drag mode", slog.Bool("enabled", v), slog.String("state", c.sess.State.String()))
}

func (c *Controller) Enabled() bool { return c.enabled }

// Session returns a copy of the current gesture state.
func (c *Controller) Session() Session { return c.sess }

// Select records the annotation pressed on as the one to drag.
// It reports whether the selection was recorded.
func (c *Controller) Select(index int) bool {
	if !c.enabled {
		return false
	}
	c.sess.Active = index
	return true
}

// Begin starts a gesture at pt.
func (c *Controller) Begin(pt geom.Pt) {
	if !c.enabled {
		return
	}
	c.pending = nil
	c.sess.State = Dragging
	c.sess.Start = pt
	c.sess.Delta = annotation.Offset{}
	c.log.Debug("drag begin", slog.Int("index", c.sess.Active), slog.Float64("x", float64(pt.X)), slog.Float64("y", float64(pt.Y)))
}

// Move shows the displacement from the gesture start on the active annotation.
func (c *Controller) Move(pt geom.Pt) {
	if !c.enabled || c.sess.State != Dragging {
		return
	}
	if c.coalesce {
		p := pt
		c.pending = &p
		return
	}
	c.apply(pt)
}

// Flush applies the newest buffered move, if any. Hosts call it once per frame.
func (c *Controller) Flush() bool {
	if c.pending == nil {
		return false
	}
	pt := *c.pending
	c.pending = nil
	if !c.enabled || c.sess.State != Dragging {
		return false
	}
	c.apply(pt)
	return true
}

func (c *Controller) apply(pt geom.Pt) {
	d := pt.Sub(c.sess.Start)
	c.sess.Delta = annotation.Offset{X: d.X, Y: d.Y}
	if c.sess.Active == NoActive {
		return
	}
	c.store.UpdateLiveOffset(c.sess.Active, c.sess.Delta)
}

// End commits the gesture's displacement and returns to Idle.
func (c *Controller) End(pt geom.Pt) {
	if !c.enabled {
		return
	}
	c.Flush()
	if c.sess.State == Dragging && c.sess.Active != NoActive {
		c.store.CommitDrag(c.sess.Active, c.sess.Delta)
		c.log.Debug("drag end", slog.Int("index", c.sess.Active),
			slog.Float64("dx", float64(c.sess.Delta.X)), slog.Float64("dy", float64(c.sess.Delta.Y)))
	}
	c.sess = Session{Active: NoActive}
}

// Mount registers the controller on bus: a target-phase handler that selects
// the pressed annotation and stops propagation, then document-phase handlers
// for down/move/up. Target handlers always run before document handlers, so
// Select happens before Begin for the same press.
func (c *Controller) Mount(bus *pointer.Bus) error {
	if c.release != nil {
		return ErrAlreadyMounted
	}
	c.release = []func(){
		bus.OnTarget(func(ev pointer.Event) bool {
			if ev.Kind != pointer.Down {
				return false
			}
			c.Select(ev.Target)
			return true
		}),
		bus.OnDocument(func(ev pointer.Event) bool {
			switch ev.Kind {
			case pointer.Down:
				c.Begin(ev.Pos)
			case pointer.Move:
				c.Move(ev.Pos)
			case pointer.Up:
				c.End(ev.Pos)
			}
			return false
		}),
	}
	return nil
}

// Unmount releases every listener registered by Mount.
func (c *Controller) Unmount() {
	for _, r := range c.release {
		r()
	}
	c.release = nil
	c.pending = nil
}
