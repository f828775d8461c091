//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"memeditor/internal/annotation"
	"memeditor/internal/editor"
	"memeditor/internal/geom"
	"memeditor/internal/pointer"
)

// Surface shows the loaded image with one editable caption field per
// annotation, placed at its position plus live drag offset.
type Surface struct {
	widget.BaseWidget
	ed *editor.Editor

	img    *canvas.Image
	imgMin fyne.Size
	fields map[string]*captionField
	order  []*captionField

	unsubscribe func()
	// OnEmptyTapped is called for taps while no image is loaded.
	OnEmptyTapped func()
}

func NewSurface(ed *editor.Editor) *Surface {
	s := &Surface{ed: ed, fields: map[string]*captionField{}}
	s.ExtendBaseWidget(s)
	s.unsubscribe = ed.Store().Subscribe(func(annotation.Snapshot) { fyne.Do(s.Refresh) })
	return s
}

// Close stops following the store.
func (s *Surface) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// SetImage replaces the background image; it is shown at its natural size.
func (s *Surface) SetImage(img image.Image) {
	s.img = canvas.NewImageFromImage(img)
	s.img.FillMode = canvas.ImageFillOriginal
	b := img.Bounds()
	s.imgMin = fyne.NewSize(float32(b.Dx()), float32(b.Dy()))
	s.Refresh()
}

// Field returns the caption field of annotation i, or nil.
func (s *Surface) Field(i int) fyne.Focusable {
	a, ok := s.ed.Store().At(i)
	if !ok {
		return nil
	}
	if f := s.fields[a.ID]; f != nil {
		return f
	}
	return nil
}

// Refresh re-syncs the caption fields and then runs the focus transfers that
// were waiting for the new fields to exist.
func (s *Surface) Refresh() {
	s.BaseWidget.Refresh()
	if s.ed.PendingFocus() > 0 {
		fyne.Do(func() { s.ed.AfterRender() })
	}
}

// Tapped on the background adds a caption. Taps on a caption never reach here.
func (s *Surface) Tapped(e *fyne.PointEvent) {
	if s.img == nil {
		if s.OnEmptyTapped != nil {
			s.OnEmptyTapped()
		}
		return
	}
	s.updateContainer()
	s.ed.Dispatch(pointer.Event{Kind: pointer.Click, Target: pointer.NoTarget, Pos: toPt(e.AbsolutePosition)})
}

// updateContainer reports the surface's current box in window coordinates.
func (s *Surface) updateContainer() {
	app := fyne.CurrentApp()
	if app == nil {
		s.ed.ClearContainer()
		return
	}
	abs := app.Driver().AbsolutePositionForObject(s)
	sz := s.Size()
	s.ed.SetContainer(geom.R(abs.X, abs.Y, sz.Width, sz.Height))
}

func (s *Surface) Cursor() desktop.Cursor {
	if s.ed.Cursor() == editor.CursorGrabbing {
		return desktop.CrosshairCursor
	}
	return desktop.TextCursor
}

// sync reconciles fields with the current snapshot, keyed by annotation ID so
// a field keeps its cursor and selection across updates.
func (s *Surface) sync() {
	snap := s.ed.Store().Snapshot()
	seen := make(map[string]bool, snap.Len())
	s.order = s.order[:0]
	for _, a := range snap.Items {
		f := s.fields[a.ID]
		if f == nil {
			f = newCaptionField(s, a)
			s.fields[a.ID] = f
		}
		if f.Text != a.Value {
			f.SetText(a.Value)
		}
		seen[a.ID] = true
		s.order = append(s.order, f)
	}
	for id := range s.fields {
		if !seen[id] {
			delete(s.fields, id)
		}
	}
}

func (s *Surface) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	hint := widget.NewLabelWithStyle("Click here to add an image", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	return &surfaceRenderer{s: s, bg: bg, hint: hint}
}

type surfaceRenderer struct {
	s       *Surface
	bg      *canvas.Rectangle
	hint    *widget.Label
	objects []fyne.CanvasObject
}

func (r *surfaceRenderer) Destroy() { r.s.Close() }

func (r *surfaceRenderer) Objects() []fyne.CanvasObject {
	if r.objects == nil {
		r.rebuild()
	}
	return r.objects
}

func (r *surfaceRenderer) MinSize() fyne.Size {
	if r.s.img == nil {
		return fyne.NewSize(480, 320)
	}
	return r.s.imgMin
}

func (r *surfaceRenderer) Refresh() {
	r.s.sync()
	r.rebuild()
	r.Layout(r.s.Size())
	canvas.Refresh(r.s)
}

// rebuild sets the draw order: background, image, then captions in creation
// order with their resize handles on top.
func (r *surfaceRenderer) rebuild() {
	objs := []fyne.CanvasObject{r.bg}
	if r.s.img != nil {
		objs = append(objs, r.s.img)
		r.hint.Hide()
	} else {
		objs = append(objs, r.hint)
		r.hint.Show()
	}
	for _, f := range r.s.order {
		objs = append(objs, f.wrap, f.handle)
	}
	r.objects = objs
}

func (r *surfaceRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	if r.s.img != nil {
		r.s.img.Move(fyne.NewPos(0, 0))
		r.s.img.Resize(r.s.imgMin)
	} else {
		r.hint.Resize(size)
		r.hint.Move(fyne.NewPos(0, 0))
	}
	pad := theme.InnerPadding()
	for _, f := range r.s.order {
		i := f.index()
		a, ok := r.s.ed.Store().At(i)
		if !ok {
			f.wrap.Hide()
			f.handle.Hide()
			continue
		}
		box, _ := r.s.ed.Measure(i)
		pos := a.Rendered()
		w, h := box.W+2*pad, box.H+2*pad
		f.wrap.Show()
		f.wrap.Move(fyne.NewPos(pos.Left, pos.Top))
		f.wrap.Resize(fyne.NewSize(w, h))
		if a.ResizeVisible() {
			f.handle.Move(fyne.NewPos(pos.Left+w-handleSize, pos.Top+h-handleSize))
			f.handle.Resize(fyne.NewSize(handleSize, handleSize))
			f.handle.Show()
		} else {
			f.handle.Hide()
		}
	}
}

const handleSize = 8

func toPt(p fyne.Position) geom.Pt { return geom.Pt{X: p.X, Y: p.Y} }

// captionField is a multi-line entry that forwards focus, text and pointer
// events into the editor. While drag mode is on, pointer input moves the
// caption instead of selecting text.
type captionField struct {
	widget.Entry
	s       *Surface
	id      string
	wrap    *container.ThemeOverride
	handle  *canvas.Rectangle
	lastAbs fyne.Position
}

func newCaptionField(s *Surface, a annotation.Annotation) *captionField {
	f := &captionField{s: s, id: a.ID}
	f.MultiLine = true
	f.Wrapping = fyne.TextWrapOff
	f.TextStyle = fyne.TextStyle{Bold: a.Style.Bold, Monospace: monospace(a.Style.FontFamily)}
	f.ExtendBaseWidget(f)
	f.OnChanged = func(text string) {
		if i := f.index(); i >= 0 {
			s.ed.Type(i, text)
		}
	}
	f.wrap = container.NewThemeOverride(f, newCaptionTheme(a.Style))
	f.handle = canvas.NewRectangle(color.NRGBA{R: 0, G: 120, B: 255, A: 200})
	f.handle.Hide()
	return f
}

func (f *captionField) index() int { return f.s.ed.Store().IndexOf(f.id) }

func (f *captionField) dragging() bool { return f.s.ed.Controller().Enabled() }

func (f *captionField) FocusGained() {
	f.Entry.FocusGained()
	if i := f.index(); i >= 0 {
		f.s.ed.Focus(i)
	}
}

func (f *captionField) FocusLost() {
	f.Entry.FocusLost()
	if i := f.index(); i >= 0 {
		f.s.ed.Blur(i, f.Text)
	}
}

func (f *captionField) MouseDown(m *desktop.MouseEvent) {
	f.lastAbs = m.AbsolutePosition
	f.s.ed.Dispatch(pointer.Event{Kind: pointer.Down, Target: f.index(), Pos: toPt(m.AbsolutePosition)})
	if !f.dragging() {
		f.Entry.MouseDown(m)
	}
}

func (f *captionField) Dragged(d *fyne.DragEvent) {
	f.lastAbs = d.AbsolutePosition
	f.s.ed.Dispatch(pointer.Event{Kind: pointer.Move, Target: pointer.NoTarget, Pos: toPt(d.AbsolutePosition)})
	if !f.dragging() {
		f.Entry.Dragged(d)
	}
}

// MouseUp and DragEnd may both arrive for one gesture; the second release
// finds the controller idle and does nothing.
func (f *captionField) MouseUp(m *desktop.MouseEvent) {
	f.lastAbs = m.AbsolutePosition
	f.s.ed.Dispatch(pointer.Event{Kind: pointer.Up, Target: pointer.NoTarget, Pos: toPt(m.AbsolutePosition)})
	if !f.dragging() {
		f.Entry.MouseUp(m)
	}
}

func (f *captionField) DragEnd() {
	f.s.ed.Dispatch(pointer.Event{Kind: pointer.Up, Target: pointer.NoTarget, Pos: toPt(f.lastAbs)})
	if !f.dragging() {
		f.Entry.DragEnd()
	}
}

func (f *captionField) Cursor() desktop.Cursor {
	if f.dragging() {
		return desktop.CrosshairCursor
	}
	return f.Entry.Cursor()
}

func monospace(family string) bool {
	fam := strings.ToLower(family)
	return strings.Contains(fam, "courier") || strings.Contains(fam, "mono")
}

// captionTheme applies an annotation's color and size to its field and makes
// the input background transparent so the image shows through.
type captionTheme struct {
	fyne.Theme
	fg   color.Color
	size float32
}

func newCaptionTheme(st annotation.Style) *captionTheme {
	size := float32(st.FontSizePx)
	if size <= 0 {
		size = theme.DefaultTheme().Size(theme.SizeNameText)
	}
	return &captionTheme{Theme: theme.DefaultTheme(), fg: st.RGBA(), size: size}
}

func (t *captionTheme) Color(n fyne.ThemeColorName, v fyne.ThemeVariant) color.Color {
	switch n {
	case theme.ColorNameForeground:
		return t.fg
	case theme.ColorNameInputBackground, theme.ColorNameInputBorder:
		return color.Transparent
	}
	return t.Theme.Color(n, v)
}

func (t *captionTheme) Size(n fyne.ThemeSizeName) float32 {
	if n == theme.SizeNameText {
		return t.size
	}
	return t.Theme.Size(n)
}
