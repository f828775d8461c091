/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"memeditor/internal/annotation"
	"memeditor/internal/editor"
	"memeditor/internal/focus"
	"memeditor/internal/geom"
	applog "memeditor/internal/log"
	"memeditor/internal/pointer"
)

// ErrExpectation is returned when an expect step does not hold.
var ErrExpectation = errors.New("expectation failed")

// Replay builds an editor from opts, applies the script's own settings on
// top, mounts it and runs the steps.
func Replay(ctx context.Context, s Script, opts editor.Options) (annotation.Snapshot, error) {
	if s.FocusPolicy != "" {
		p, err := focus.ParsePolicy(s.FocusPolicy)
		if err != nil {
			return annotation.Snapshot{}, err
		}
		opts.FocusPolicy = p
	}
	if s.Coalesce {
		opts.Coalesce = true
	}
	ed := editor.New(opts)
	if err := ed.Mount(); err != nil {
		return annotation.Snapshot{}, err
	}
	defer ed.Unmount()
	return Run(ctx, ed, s)
}

// Run applies the steps of s to a mounted editor and returns the final
// snapshot. Like a real host it blurs the focused annotation before a click
// on the image or a focus change, so at most one annotation is focused.
// Deferred focus transfers only run at render steps. Run installs its own
// focus request callback on ed.
func Run(ctx context.Context, ed *editor.Editor, s Script) (annotation.Snapshot, error) {
	l := applog.WithOperation(applog.WithComponent("script"), "run")
	ed.OnFocusRequest(func(i int) { hostFocus(ed, i) })
	if s.Container != nil {
		ed.SetContainer(*s.Container)
	}
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return ed.Store().Snapshot(), err
		}
		l.Debug("step", slog.Int("n", i+1), slog.String("op", string(st.Op)), slog.Int("line", st.Line))
		if err := apply(ed, st); err != nil {
			return ed.Store().Snapshot(), fmt.Errorf("step %d (line %d, %s): %w", i+1, st.Line, st.Op, err)
		}
	}
	snap := ed.Store().Snapshot()
	l.Info("replay finished", slog.String("script", s.Name), slog.Int("steps", len(s.Steps)), slog.Int("annotations", snap.Len()))
	return snap, nil
}

func apply(ed *editor.Editor, st Step) error {
	switch st.Op {
	case OpClick:
		blurFocused(ed)
		ed.Dispatch(pointer.Event{Kind: pointer.Click, Target: pointer.NoTarget, Pos: st.At})
	case OpRender:
		ed.AfterRender()
	case OpType:
		ed.Type(st.Index, st.Text)
	case OpFocus:
		hostFocus(ed, st.Index)
	case OpBlur:
		text := st.Text
		if !st.HasText {
			a, ok := ed.Store().At(st.Index)
			if !ok {
				return nil
			}
			text = a.Value
		}
		ed.Blur(st.Index, text)
	case OpToggleDrag:
		ed.ToggleDrag()
	case OpDragMode:
		ed.SetDragEnabled(st.Enabled)
	case OpDrag:
		ed.Dispatch(pointer.Event{Kind: pointer.Down, Target: st.Index, Pos: st.At})
		for k := 1; k <= st.Count; k++ {
			f := float32(k) / float32(st.Count)
			pt := geom.Pt{X: st.At.X + (st.To.X-st.At.X)*f, Y: st.At.Y + (st.To.Y-st.At.Y)*f}
			ed.Dispatch(pointer.Event{Kind: pointer.Move, Target: pointer.NoTarget, Pos: pt})
		}
		ed.Dispatch(pointer.Event{Kind: pointer.Up, Target: pointer.NoTarget, Pos: st.To})
	case OpDown:
		ed.Dispatch(pointer.Event{Kind: pointer.Down, Target: st.Index, Pos: st.At})
	case OpMove:
		ed.Dispatch(pointer.Event{Kind: pointer.Move, Target: pointer.NoTarget, Pos: st.At})
	case OpUp:
		ed.Dispatch(pointer.Event{Kind: pointer.Up, Target: pointer.NoTarget, Pos: st.At})
	case OpFlush:
		ed.Controller().Flush()
	case OpStyle:
		return applyStyle(ed, st.Style)
	case OpExpect:
		return check(ed, st.Expect)
	default:
		return fmt.Errorf("unknown step %q", st.Op)
	}
	return nil
}

// hostFocus moves focus to i the way a toolkit does: the previously focused
// field loses focus first, which may remove it, and focus then lands on the
// same annotation wherever it is afterwards.
func hostFocus(ed *editor.Editor, i int) {
	a, ok := ed.Store().At(i)
	if !ok {
		return
	}
	if ed.Focused() != i {
		blurFocused(ed)
	}
	ed.Focus(ed.Store().IndexOf(a.ID))
}

func blurFocused(ed *editor.Editor) {
	i := ed.Focused()
	if i < 0 {
		return
	}
	if a, ok := ed.Store().At(i); ok {
		ed.Blur(i, a.Value)
	}
}

func applyStyle(ed *editor.Editor, sc StyleChange) error {
	if sc.Color != "" {
		if err := ed.SetColor(sc.Color); err != nil {
			return err
		}
	}
	if sc.Size != 0 {
		if err := ed.SetFontSize(sc.Size); err != nil {
			return err
		}
	}
	if sc.Font != "" {
		if err := ed.SetFont(sc.Font); err != nil {
			return err
		}
	}
	if sc.Bold != nil && ed.Toolbar().Bold != *sc.Bold {
		ed.ToggleBold()
	}
	return nil
}

func check(ed *editor.Editor, ex Expect) error {
	snap := ed.Store().Snapshot()
	if ex.Len != nil && snap.Len() != *ex.Len {
		return fmt.Errorf("%w: len = %d, want %d", ErrExpectation, snap.Len(), *ex.Len)
	}
	if ex.Focused != nil && ed.Focused() != *ex.Focused {
		return fmt.Errorf("%w: focused = %d, want %d", ErrExpectation, ed.Focused(), *ex.Focused)
	}
	if ex.Text == nil && ex.Offset == nil {
		return nil
	}
	a, ok := ed.Store().At(ex.Index)
	if !ok {
		return fmt.Errorf("%w: no annotation at %d", ErrExpectation, ex.Index)
	}
	if ex.Text != nil && a.Value != *ex.Text {
		return fmt.Errorf("%w: text[%d] = %q, want %q", ErrExpectation, ex.Index, a.Value, *ex.Text)
	}
	if ex.Offset != nil && (a.BaseOffset.X != ex.Offset.X || a.BaseOffset.Y != ex.Offset.Y) {
		return fmt.Errorf("%w: offset[%d] = %v, want %v", ErrExpectation, ex.Index, a.BaseOffset, *ex.Offset)
	}
	return nil
}
