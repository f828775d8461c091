/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"

	"memeditor/internal/geom"
)

// Script is a recorded sequence of host events for an editor session:
// clicks on the image, typing, focus changes, toolbar changes and pointer
// gestures. Replaying it is deterministic, which is what the CLI replay
// command and the end-to-end tests rely on.
type Script struct {
	Name string
	// Container is the image container box in page coordinates, nil for none.
	Container   *geom.Rect
	FocusPolicy string
	Coalesce    bool
	Steps       []Step
}

// Op names a step.
type Op string

const (
	OpClick      Op = "click"
	OpType       Op = "type"
	OpFocus      Op = "focus"
	OpBlur       Op = "blur"
	OpRender     Op = "render"
	OpDrag       Op = "drag"
	OpDragMode   Op = "drag_mode"
	OpToggleDrag Op = "toggle_drag"
	OpStyle      Op = "style"
	OpDown       Op = "down"
	OpMove       Op = "move"
	OpUp         Op = "up"
	OpFlush      Op = "flush"
	OpExpect     Op = "expect"
)

// Step is one event. Which fields are meaningful depends on Op:
//
//	click      At
//	type       Index, Text
//	focus      Index
//	blur       Index, Text if HasText (else the current text)
//	drag       Index, At (from), To, Count (intermediate moves)
//	drag_mode  Enabled
//	style      Style
//	down       Index (target, -1 for background), At
//	move, up   At
//	expect     Expect
type Step struct {
	Op      Op
	Index   int
	Text    string
	HasText bool
	At      geom.Pt
	To      geom.Pt
	Count   int
	Enabled bool
	Style   StyleChange
	Expect  Expect
	Line    int // 1-based line in the source
}

// StyleChange updates toolbar selections; zero fields are left alone.
type StyleChange struct {
	Color string
	Size  int
	Bold  *bool
	Font  string
}

// Expect asserts on the editor state at that point of the replay.
type Expect struct {
	Len     *int
	Focused *int
	Index   int
	Text    *string
	Offset  *geom.Pt
}

// Error represents a parse error with position context.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) Error() string {
	if e.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}
