/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"os"
	"strings"
	"testing"

	"memeditor/internal/geom"
)

func TestParseSample(t *testing.T) {
	data, err := os.ReadFile("testdata/captions.yaml")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	s, errs := Parse(data)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if s.Name != "top caption dragged into place" {
		t.Fatalf("name = %q", s.Name)
	}
	if s.Container == nil || *s.Container != geom.R(20, 30, 400, 300) {
		t.Fatalf("container = %+v", s.Container)
	}
	if len(s.Steps) != 15 {
		t.Fatalf("expected 15 steps, got %d", len(s.Steps))
	}
	first := s.Steps[0]
	if first.Op != OpClick || first.At != (geom.Pt{X: 100, Y: 80}) || first.Line != 4 {
		t.Fatalf("unexpected first step %+v", first)
	}
	if s.Steps[1].Op != OpRender {
		t.Fatalf("scalar step not parsed: %+v", s.Steps[1])
	}
	st := s.Steps[3]
	if st.Op != OpStyle || st.Style.Color != "#ff0000" || st.Style.Size != 24 || st.Style.Bold == nil || !*st.Style.Bold {
		t.Fatalf("unexpected style step %+v", st)
	}
	blur := s.Steps[10]
	if blur.Op != OpBlur || blur.Index != 1 || blur.HasText {
		t.Fatalf("unexpected blur step %+v", blur)
	}
	drag := s.Steps[13]
	if drag.Op != OpDrag || drag.Count != 3 || drag.To != (geom.Pt{X: 130, Y: 145}) {
		t.Fatalf("unexpected drag step %+v", drag)
	}
	ex := s.Steps[14].Expect
	if ex.Len == nil || *ex.Len != 2 || ex.Text == nil || *ex.Text != "TOP TEXT" || ex.Offset == nil {
		t.Fatalf("unexpected expect %+v", ex)
	}
}

func TestParseErrorsCarryPositions(t *testing.T) {
	input := `steps:
  - click: [1]
  - type: {index: 0}
  - wobble
  - drag: {index: 0, from: [0, 0], to: [1, 1], steps: 0}
  - style: {colour: red}
extra: true
`
	_, errs := Parse([]byte(input))
	if len(errs) != 6 {
		t.Fatalf("expected 6 errors, got %d: %+v", len(errs), errs)
	}
	wantLines := []int{2, 3, 4, 5, 6, 7}
	for i, e := range errs {
		if e.Line != wantLines[i] {
			t.Fatalf("error %d on line %d, want %d (%s)", i, e.Line, wantLines[i], e.Message)
		}
	}
	if !strings.Contains(errs[2].Error(), `unknown step "wobble"`) {
		t.Fatalf("unexpected message %q", errs[2].Error())
	}
}

func TestParseRejectsNonScripts(t *testing.T) {
	for name, in := range map[string]string{
		"empty":    "",
		"list":     "- click: [1, 2]\n",
		"no steps": "name: x\n",
		"bad yaml": "steps: [\n",
	} {
		if _, errs := Parse([]byte(in)); len(errs) == 0 {
			t.Fatalf("%s: expected errors", name)
		}
	}
}

func TestParseFile(t *testing.T) {
	if _, err := ParseFile("testdata/captions.yaml"); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if _, err := ParseFile("testdata/missing.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
