//go:build fyne && cgo

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
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"memeditor/internal/crash"
	"memeditor/internal/drag"
	"memeditor/internal/editor"
	applog "memeditor/internal/log"
	"memeditor/internal/version"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Run starts the Fyne-based desktop editor.
func Run(opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	eopts, err := editor.OptionsFromConfig(opts.Config)
	if err != nil {
		l.Warn("editor options", slog.Any("err", err))
	}
	eopts.Logger = l
	ed := editor.New(eopts)
	defer crash.Recover(ed.Store())
	if err := ed.Mount(); err != nil {
		return err
	}
	defer ed.Unmount()

	fyneApp := app.NewWithID("memeditor")
	w := fyneApp.NewWindow("MemEditor")
	// Restore window size from preferences (with sane minimums)
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1024), 640)
	winH := max(prefs.IntWithFallback("window.height", 768), 480)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	surface := NewSurface(ed)
	ed.OnFocusRequest(func(i int) {
		if f := surface.Field(i); f != nil {
			w.Canvas().Focus(f)
		}
	})

	_, bar := newToolbar(ed, w, func(msg string) {
		status.SetText(msg)
		surface.Refresh()
	})

	loadImage := func(name string, r io.Reader) {
		if err := ed.LoadImage(r); err != nil {
			l.Error("load image failed", slog.String("name", name), slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		img, format := ed.Image()
		surface.SetImage(img)
		b := img.Bounds()
		w.SetTitle(fmt.Sprintf("MemEditor - %s", filepath.Base(name)))
		status.SetText(fmt.Sprintf("%s (%s, %dx%d)", name, format, b.Dx(), b.Dy()))
	}
	openImage := func() {
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			defer func() { _ = ur.Close() }()
			loadImage(ur.URI().Path(), ur)
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter(imageExtensions))
		open.Show()
	}
	surface.OnEmptyTapped = openImage

	// Pointer moves are applied once per frame when coalescing is on.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if eopts.Coalesce {
		interval := opts.Config.Drag.FrameInterval()
		go func() {
			if err := drag.RunFrames(ctx, interval, fyne.Do, func() { ed.Controller().Flush() }); err != nil && ctx.Err() == nil {
				l.Error("frame loop stopped", slog.Any("err", err))
			}
		}()
	}

	openItem := fyne.NewMenuItem("Open Image…", openImage)
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	w.Canvas().AddShortcut(openItem.Shortcut, func(fyne.Shortcut) { openImage() })
	fileMenu := fyne.NewMenu("File", openItem)
	aboutItem := fyne.NewMenuItem("About", func() {
		info := fmt.Sprintf("MemEditor %s\nOS/Arch: %s/%s\nGo: %s", version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version())
		dialog.ShowInformation("About", info, w)
	})
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, fyne.NewMenu("Help", aboutItem)))

	w.SetContent(container.NewBorder(bar, status, nil, nil, container.NewScroll(surface)))

	// Persist preferences on close
	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		w.Close()
	})

	if opts.ImagePath != "" {
		f, err := os.Open(opts.ImagePath)
		if err != nil {
			l.Error("open image failed", slog.Any("err", err))
			status.SetText(err.Error())
		} else {
			loadImage(opts.ImagePath, f)
			_ = f.Close()
		}
	}

	w.ShowAndRun()
	return nil
}
