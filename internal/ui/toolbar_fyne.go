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
	"fmt"
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"memeditor/internal/annotation"
	"memeditor/internal/editor"
)

// toolbar holds the controls for the selections applied to new captions.
type toolbar struct {
	ed      *editor.Editor
	dragBtn *widget.Button
	boldBtn *widget.Button
	swatch  *canvas.Rectangle
	size    *widget.Entry
	font    *widget.Select
	// onChange lets the window refresh the cursor and status line.
	onChange func(msg string)
}

func newToolbar(ed *editor.Editor, w fyne.Window, onChange func(string)) (*toolbar, fyne.CanvasObject) {
	t := &toolbar{ed: ed, onChange: onChange}
	tb := ed.Toolbar()

	t.dragBtn = widget.NewButton(onOff("Drag", tb.DragEnabled), func() {
		on := ed.ToggleDrag()
		t.dragBtn.SetText(onOff("Drag", on))
		t.changed(onOff("Drag", on))
	})
	t.boldBtn = widget.NewButton(onOff("Bold", tb.Bold), func() {
		on := ed.ToggleBold()
		t.boldBtn.SetText(onOff("Bold", on))
		t.changed(onOff("Bold", on))
	})

	t.swatch = canvas.NewRectangle(swatchColor(tb.Color))
	t.swatch.SetMinSize(fyne.NewSize(20, 20))
	colorBtn := widget.NewButton("Color", func() {
		picker := dialog.NewColorPicker("Text color", "Color for new captions", func(c color.Color) {
			if err := t.setColor(hexColor(c)); err != nil {
				dialog.ShowError(err, w)
			}
		}, w)
		picker.Advanced = true
		picker.Show()
	})

	t.size = widget.NewEntry()
	t.size.SetText(strconv.Itoa(tb.FontSizePx))
	t.size.Validator = func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: %q", editor.ErrInvalidFontSize, s)
		}
		if n <= 0 {
			return fmt.Errorf("%w: %d", editor.ErrInvalidFontSize, n)
		}
		return nil
	}
	t.size.OnChanged = func(s string) {
		if n, err := strconv.Atoi(s); err == nil && ed.SetFontSize(n) == nil {
			t.changed(fmt.Sprintf("Size %dpx", n))
		}
	}

	t.font = widget.NewSelect(ed.Fonts(), func(s string) {
		if err := ed.SetFont(s); err != nil {
			dialog.ShowError(err, w)
			return
		}
		t.changed("Font " + s)
	})
	t.font.SetSelected(tb.FontFamily)

	bar := container.NewHBox(
		t.dragBtn,
		container.NewHBox(t.swatch, colorBtn),
		widget.NewLabel("Size"), container.NewGridWrap(fyne.NewSize(64, t.size.MinSize().Height), t.size),
		t.boldBtn,
		t.font,
	)
	return t, bar
}

func (t *toolbar) setColor(hex string) error {
	if err := t.ed.SetColor(hex); err != nil {
		return err
	}
	t.swatch.FillColor = swatchColor(t.ed.Toolbar().Color)
	t.swatch.Refresh()
	t.changed("Color " + t.ed.Toolbar().Color)
	return nil
}

func (t *toolbar) changed(msg string) {
	if t.onChange != nil {
		t.onChange(msg)
	}
}

func onOff(label string, on bool) string {
	if on {
		return label + ": on"
	}
	return label + ": off"
}

func hexColor(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

func swatchColor(hex string) color.Color {
	c, err := annotation.ParseHexColor(hex)
	if err != nil {
		return color.Black
	}
	return c
}
