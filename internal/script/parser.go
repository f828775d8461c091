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
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"memeditor/internal/geom"
)

// Parse parses a YAML gesture script.
//
//	name: top and bottom caption
//	container: [20, 30, 400, 300]   # x, y, w, h
//	focus_policy: last              # or created
//	steps:
//	  - click: [100, 80]
//	  - render                      # run deferred focus transfers
//	  - type: {index: 0, text: "TOP TEXT"}
//	  - blur: 0
//	  - toggle_drag
//	  - drag: {index: 0, from: [100, 100], to: [130, 145], steps: 3}
//	  - expect: {len: 1, index: 0, text: "TOP TEXT", offset: [30, 45]}
//
// Steps without arguments may be written as plain scalars. All problems are
// collected; a script with errors should not be run.
func Parse(input []byte) (Script, []Error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(input, &doc); err != nil {
		return Script{}, []Error{{Message: err.Error()}}
	}
	if len(doc.Content) == 0 {
		return Script{}, []Error{{Line: 1, Column: 1, Message: "empty script"}}
	}
	p := &parser{}
	s := p.script(doc.Content[0])
	return s, p.errs
}

// ParseFile reads and parses path. Parse errors are joined into one error.
func ParseFile(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	s, errs := Parse(data)
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return s, fmt.Errorf("%s: %s", path, strings.Join(msgs, "; "))
	}
	return s, nil
}

type parser struct {
	errs []Error
}

func (p *parser) fail(n *yaml.Node, format string, args ...any) {
	p.errs = append(p.errs, Error{Line: n.Line, Column: n.Column, Message: fmt.Sprintf(format, args...)})
}

func (p *parser) script(root *yaml.Node) Script {
	var s Script
	if root.Kind != yaml.MappingNode {
		p.fail(root, "script must be a mapping")
		return s
	}
	hasSteps := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		switch k.Value {
		case "name":
			p.decode(v, &s.Name)
		case "container":
			if xywh, ok := p.floats(v, 4); ok {
				r := geom.R(xywh[0], xywh[1], xywh[2], xywh[3])
				s.Container = &r
			}
		case "focus_policy":
			p.decode(v, &s.FocusPolicy)
		case "coalesce":
			p.decode(v, &s.Coalesce)
		case "steps":
			hasSteps = true
			if v.Kind != yaml.SequenceNode {
				p.fail(v, "steps must be a list")
				continue
			}
			for _, item := range v.Content {
				if st, ok := p.step(item); ok {
					s.Steps = append(s.Steps, st)
				}
			}
		default:
			p.fail(k, "unknown field %q", k.Value)
		}
	}
	if !hasSteps {
		p.fail(root, "missing steps")
	}
	return s
}

func (p *parser) step(n *yaml.Node) (Step, bool) {
	st := Step{Line: n.Line, Index: -1}
	var arg *yaml.Node
	switch n.Kind {
	case yaml.ScalarNode:
		st.Op = Op(n.Value)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			p.fail(n, "a step has exactly one operation")
			return st, false
		}
		st.Op, arg = Op(n.Content[0].Value), n.Content[1]
	default:
		p.fail(n, "step must be a name or a single-key mapping")
		return st, false
	}
	before := len(p.errs)
	switch st.Op {
	case OpRender, OpToggleDrag, OpFlush:
		if arg != nil && arg.Tag != "!!null" {
			p.fail(arg, "%s takes no arguments", st.Op)
		}
	case OpClick, OpMove, OpUp:
		st.At, _ = p.point(p.required(n, arg, st.Op))
	case OpFocus:
		p.decode(p.required(n, arg, st.Op), &st.Index)
	case OpType:
		m := p.fields(p.required(n, arg, st.Op), "index", "text")
		p.need(n, m, "index", "text")
		p.decode(m["index"], &st.Index)
		st.HasText = p.decode(m["text"], &st.Text)
	case OpBlur:
		a := p.required(n, arg, st.Op)
		if a.Kind == yaml.ScalarNode {
			p.decode(a, &st.Index)
			break
		}
		m := p.fields(a, "index", "text")
		p.decode(m["index"], &st.Index)
		st.HasText = p.decode(m["text"], &st.Text)
	case OpDrag:
		m := p.fields(p.required(n, arg, st.Op), "index", "from", "to", "steps")
		p.need(n, m, "index", "from", "to")
		p.decode(m["index"], &st.Index)
		st.At, _ = p.point(m["from"])
		st.To, _ = p.point(m["to"])
		st.Count = 1
		p.decode(m["steps"], &st.Count)
		if st.Count < 1 {
			p.fail(m["steps"], "steps must be at least 1")
		}
	case OpDragMode:
		p.decode(p.required(n, arg, st.Op), &st.Enabled)
	case OpStyle:
		m := p.fields(p.required(n, arg, st.Op), "color", "size", "bold", "font")
		p.decode(m["color"], &st.Style.Color)
		p.decode(m["size"], &st.Style.Size)
		p.decode(m["font"], &st.Style.Font)
		var b bool
		if p.decode(m["bold"], &b) {
			st.Style.Bold = &b
		}
	case OpDown:
		m := p.fields(p.required(n, arg, st.Op), "target", "at")
		p.need(n, m, "at")
		p.decode(m["target"], &st.Index)
		st.At, _ = p.point(m["at"])
	case OpExpect:
		m := p.fields(p.required(n, arg, st.Op), "len", "focused", "index", "text", "offset")
		var ln, fo int
		if p.decode(m["len"], &ln) {
			st.Expect.Len = &ln
		}
		if p.decode(m["focused"], &fo) {
			st.Expect.Focused = &fo
		}
		p.decode(m["index"], &st.Expect.Index)
		var text string
		if p.decode(m["text"], &text) {
			st.Expect.Text = &text
		}
		if m["offset"] != nil {
			if pt, ok := p.point(m["offset"]); ok {
				st.Expect.Offset = &pt
			}
		}
	default:
		p.fail(n, "unknown step %q", st.Op)
	}
	return st, len(p.errs) == before
}

// required returns arg, or a null node after recording an error when the
// step was written without one.
func (p *parser) required(step, arg *yaml.Node, op Op) *yaml.Node {
	if arg == nil {
		p.fail(step, "%s needs an argument", op)
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Line: step.Line, Column: step.Column}
	}
	return arg
}

// fields maps the keys of a mapping node to their values and reports keys
// not in allowed.
func (p *parser) fields(n *yaml.Node, allowed ...string) map[string]*yaml.Node {
	out := map[string]*yaml.Node{}
	if n.Kind != yaml.MappingNode {
		if n.Tag != "!!null" {
			p.fail(n, "expected a mapping")
		}
		return out
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		known := false
		for _, a := range allowed {
			if k.Value == a {
				known = true
				break
			}
		}
		if !known {
			p.fail(k, "unknown field %q", k.Value)
			continue
		}
		out[k.Value] = n.Content[i+1]
	}
	return out
}

func (p *parser) need(step *yaml.Node, m map[string]*yaml.Node, keys ...string) {
	for _, k := range keys {
		if m[k] == nil {
			p.fail(step, "missing field %q", k)
		}
	}
}

// decode reports whether n was present and decoded into v.
func (p *parser) decode(n *yaml.Node, v any) bool {
	if n == nil || n.Tag == "!!null" {
		return false
	}
	if err := n.Decode(v); err != nil {
		p.fail(n, "%v", err)
		return false
	}
	return true
}

func (p *parser) floats(n *yaml.Node, want int) ([]float32, bool) {
	var xs []float32
	if n == nil {
		return nil, false
	}
	if !p.decode(n, &xs) {
		if n.Tag == "!!null" {
			p.fail(n, "expected %d numbers", want)
		}
		return nil, false
	}
	if len(xs) != want {
		p.fail(n, "expected %d numbers, got %d", want, len(xs))
		return nil, false
	}
	return xs, true
}

func (p *parser) point(n *yaml.Node) (geom.Pt, bool) {
	if n == nil {
		return geom.Pt{}, false
	}
	xy, ok := p.floats(n, 2)
	if !ok {
		return geom.Pt{}, false
	}
	return geom.Pt{X: xy[0], Y: xy[1]}, true
}
