// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package docxhtml

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultStyleMap is applied after any caller-supplied style map.
const DefaultStyleMap = `
p.Heading1 => h1:fresh
p.Heading2 => h2:fresh
p.Heading3 => h3:fresh
p.Heading4 => h4:fresh
p.Heading5 => h5:fresh
p.Heading6 => h6:fresh
p[style-name='Heading 1'] => h1:fresh
p[style-name='Heading 2'] => h2:fresh
p[style-name='Heading 3'] => h3:fresh
p[style-name='Heading 4'] => h4:fresh
p[style-name='Heading 5'] => h5:fresh
p[style-name='Heading 6'] => h6:fresh
p[style-name='footnote text'] => p:fresh
p[style-name='endnote text'] => p:fresh
p[style-name='annotation text'] => p:fresh
r[style-name='Strong'] => strong
r[style-name='footnote reference'] =>
r[style-name='endnote reference'] =>
r[style-name='annotation reference'] =>
r[style-name='Hyperlink'] =>
b => strong
i => em
strike => s
`

type matchKind string

const (
	matchParagraph matchKind = "p"
	matchRun       matchKind = "r"
	matchBold      matchKind = "b"
	matchItalic    matchKind = "i"
	matchUnderline matchKind = "u"
	matchStrike    matchKind = "strike"
)

// pathElement is one step of a style map target such as "ul > li:fresh".
type pathElement struct {
	tag     string
	classes []string
	fresh   bool
}

func (e pathElement) attrs() [][2]string {
	if len(e.classes) == 0 {
		return nil
	}
	return [][2]string{{"class", strings.Join(e.classes, " ")}}
}

type styleRule struct {
	kind       matchKind
	styleID    string
	styleName  string
	namePrefix bool
	ignore     bool
	path       []pathElement
}

func (r styleRule) matches(kind matchKind, id, name string) bool {
	if r.kind != kind {
		return false
	}
	if r.styleID != "" && r.styleID != id {
		return false
	}
	if r.styleName != "" {
		lname, lwant := strings.ToLower(name), strings.ToLower(r.styleName)
		if r.namePrefix {
			return strings.HasPrefix(lname, lwant)
		}
		return lname == lwant
	}
	return true
}

// StyleMap is an ordered list of rules; the first match wins.
type StyleMap struct {
	rules []styleRule
}

var (
	reMatcher = regexp.MustCompile(`^(p|r|b|i|u|strike)(?:\.([\w-]+))?(?:\[\s*style-name\s*(\^?=)\s*(?:'([^']*)'|"([^"]*)")\s*\])?$`)
	reElement = regexp.MustCompile(`^([A-Za-z][\w-]*)((?:\.[\w-]+)*)(:fresh)?$`)
)

// ParseStyleMap parses a mammoth-style map. Lines that cannot be parsed are
// skipped and reported in the returned warnings.
func ParseStyleMap(src string) (StyleMap, []string) {
	var sm StyleMap
	var warnings []string
	for n, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := parseRule(line)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("style map line %d: %v", n+1, err))
			continue
		}
		sm.rules = append(sm.rules, rule)
	}
	return sm, warnings
}

func parseRule(line string) (styleRule, error) {
	lhs, rhs, ok := strings.Cut(line, "=>")
	if !ok {
		return styleRule{}, fmt.Errorf("missing '=>' in %q", line)
	}
	m := reMatcher.FindStringSubmatch(strings.TrimSpace(lhs))
	if m == nil {
		return styleRule{}, fmt.Errorf("unrecognised document matcher %q", strings.TrimSpace(lhs))
	}
	rule := styleRule{
		kind:       matchKind(m[1]),
		styleID:    m[2],
		namePrefix: m[3] == "^=",
		styleName:  m[4] + m[5],
	}

	rhs = strings.TrimSpace(rhs)
	if rhs == "!" {
		rule.ignore = true
		return rule, nil
	}
	if rhs == "" {
		return rule, nil
	}
	for _, part := range strings.Split(rhs, ">") {
		em := reElement.FindStringSubmatch(strings.TrimSpace(part))
		if em == nil {
			return styleRule{}, fmt.Errorf("unrecognised html path %q", rhs)
		}
		el := pathElement{tag: strings.ToLower(em[1]), fresh: em[3] != ""}
		if em[2] != "" {
			el.classes = strings.Split(strings.TrimPrefix(em[2], "."), ".")
		}
		rule.path = append(rule.path, el)
	}
	return rule, nil
}

// Append returns a style map whose rules are tried after those of sm.
func (sm StyleMap) Append(other StyleMap) StyleMap {
	rules := make([]styleRule, 0, len(sm.rules)+len(other.rules))
	rules = append(rules, sm.rules...)
	rules = append(rules, other.rules...)
	return StyleMap{rules: rules}
}

// Len returns the number of rules.
func (sm StyleMap) Len() int {
	return len(sm.rules)
}

func (sm StyleMap) find(kind matchKind, id, name string) (styleRule, bool) {
	for _, r := range sm.rules {
		if r.matches(kind, id, name) {
			return r, true
		}
	}
	return styleRule{}, false
}

var defaultStyleMap, _ = ParseStyleMap(DefaultStyleMap)
