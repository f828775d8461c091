/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor is the host surface around the annotation core: the image,
// the toolbar selections, click-to-add, and the wiring of pointer events into
// the drag controller. It has no UI dependency; internal/ui drives it.
package editor

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"memeditor/internal/annotation"
	"memeditor/internal/drag"
	"memeditor/internal/focus"
	"memeditor/internal/geom"
	applog "memeditor/internal/log"
	"memeditor/internal/pointer"
	"memeditor/internal/textlayout"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

// Cursor names reported to the host.
const (
	CursorGrabbing = "grabbing"
	CursorText     = "text"
)

// Editor is not safe for concurrent use. The Store it owns is, so renderers
// may read snapshots from any goroutine.
type Editor struct {
	store  *annotation.Store
	ctrl   *drag.Controller
	bus    *pointer.Bus
	queue  focus.Queue
	policy focus.Policy

	tb       Toolbar
	fonts    []string
	provider textlayout.Provider

	img       image.Image
	imgFormat string
	container geom.Rect
	hasBox    bool

	focusedID string
	onFocus   func(index int)
	release   func()
	log       *slog.Logger
}

func New(opts Options) *Editor {
	opts = opts.withDefaults()
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("editor")
	}
	store := annotation.NewStore(annotation.WithLogger(l.With(slog.String("sub", "store"))))
	var dopts []drag.Option
	dopts = append(dopts, drag.WithLogger(l.With(slog.String("sub", "drag"))))
	if opts.Coalesce {
		dopts = append(dopts, drag.WithCoalescing())
	}
	e := &Editor{
		store:    store,
		ctrl:     drag.NewController(store, dopts...),
		bus:      pointer.NewBus(),
		policy:   opts.FocusPolicy,
		tb:       opts.Toolbar,
		fonts:    append([]string(nil), opts.Fonts...),
		provider: opts.Provider,
		log:      l,
	}
	e.ctrl.SetEnabled(e.tb.DragEnabled)
	return e
}

func (e *Editor) Store() *annotation.Store     { return e.store }
func (e *Editor) Controller() *drag.Controller { return e.ctrl }
func (e *Editor) Bus() *pointer.Bus            { return e.bus }

// LoadImage decodes an image and makes it the annotation surface. Existing
// annotations stay where they are.
func (e *Editor) LoadImage(r io.Reader) error {
	img, format, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
		}
		return fmt.Errorf("decode image: %w", err)
	}
	e.img, e.imgFormat = img, format
	b := img.Bounds()
	e.log.Info("image loaded", slog.String("format", format), slog.Int("w", b.Dx()), slog.Int("h", b.Dy()))
	return nil
}

// Image returns the loaded image and its format name, or nil.
func (e *Editor) Image() (image.Image, string) { return e.img, e.imgFormat }

// SetContainer records the on-screen bounding box of the image container in
// page coordinates.
func (e *Editor) SetContainer(r geom.Rect) {
	e.container, e.hasBox = r, true
}

// ClearContainer forgets the bounding box, e.g. while the surface is hidden.
func (e *Editor) ClearContainer() { e.container, e.hasBox = geom.Rect{}, false }

// Origin is the container's top-left corner, or zero when unknown.
func (e *Editor) Origin() geom.Pt {
	if !e.hasBox {
		return geom.Pt{}
	}
	return e.container.Min()
}

// Click adds an annotation at a page coordinate with the current toolbar
// style and queues the focus transfer to it for after the next render.
func (e *Editor) Click(page geom.Pt) int {
	local := page.Sub(e.Origin())
	i := e.store.Create(annotation.Position{Top: local.Y, Left: local.X}, e.Style())
	a, _ := e.store.At(i)
	focus.Transfer(&e.queue, e.store, e.policy, a.ID, e.requestFocus)
	return i
}

// OnFocusRequest sets the callback through which the host moves keyboard
// focus to an annotation's field once it exists.
func (e *Editor) OnFocusRequest(fn func(index int)) { e.onFocus = fn }

func (e *Editor) requestFocus(i int) {
	if e.onFocus != nil {
		e.onFocus(i)
		return
	}
	e.Focus(i)
}

// AfterRender runs focus transfers queued before the render pass that just
// finished and returns how many ran.
func (e *Editor) AfterRender() int { return e.queue.Drain() }

// PendingFocus reports queued focus transfers.
func (e *Editor) PendingFocus() int { return e.queue.Pending() }

// Focus marks i as the focused annotation.
func (e *Editor) Focus(i int) bool {
	if !e.store.SetFocused(i) {
		return false
	}
	a, _ := e.store.At(i)
	e.focusedID = a.ID
	return true
}

// Blur ends editing of i; an empty text removes the annotation.
func (e *Editor) Blur(i int, text string) bool {
	a, ok := e.store.At(i)
	if !ok {
		return false
	}
	if a.ID == e.focusedID {
		e.focusedID = ""
	}
	return e.store.SetBlurred(i, text)
}

// Type replaces the text of i.
func (e *Editor) Type(i int, text string) bool { return e.store.SetText(i, text) }

// Focused returns the index of the focused annotation or -1.
func (e *Editor) Focused() int {
	if e.focusedID == "" {
		return -1
	}
	return e.store.IndexOf(e.focusedID)
}

// Mount wires the drag controller and click-to-add into the pointer bus.
func (e *Editor) Mount() error {
	if err := e.ctrl.Mount(e.bus); err != nil {
		return err
	}
	e.release = e.bus.OnBackground(func(ev pointer.Event) bool {
		if ev.Kind == pointer.Click && ev.Target == pointer.NoTarget {
			e.Click(ev.Pos)
		}
		return false
	})
	return nil
}

// Unmount releases every listener registered by Mount.
func (e *Editor) Unmount() {
	e.ctrl.Unmount()
	if e.release != nil {
		e.release()
		e.release = nil
	}
}

// Dispatch forwards a pointer event to the mounted handlers.
func (e *Editor) Dispatch(ev pointer.Event) bool { return e.bus.Dispatch(ev) }

// Measure returns the box annotation i needs for its current text.
func (e *Editor) Measure(i int) (geom.Size, bool) {
	a, ok := e.store.At(i)
	if !ok {
		return geom.Size{}, false
	}
	return textlayout.Measure(e.provider, textlayout.SpecFor(a.Style), a.Value), true
}

// Cursor is the pointer shape over the image surface.
func (e *Editor) Cursor() string {
	if e.ctrl.Enabled() {
		return CursorGrabbing
	}
	return CursorText
}
