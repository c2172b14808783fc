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

package docxpre

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

var errEmptyMath = errors.New("math element produced no output")

// mathNode is a generic OMML element.
type mathNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []mathNode `xml:",any"`
	Text    string     `xml:",chardata"`
}

func (n *mathNode) child(local string) *mathNode {
	if n == nil {
		return nil
	}
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			return &n.Nodes[i]
		}
	}
	return nil
}

func (n *mathNode) children(local string) []*mathNode {
	var out []*mathNode
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == local {
			out = append(out, &n.Nodes[i])
		}
	}
	return out
}

// val returns the m:val attribute of the element.
func (n *mathNode) val() (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name.Local == "val" {
			return a.Value, true
		}
	}
	return "", false
}

// prop reads <m:{pr}><m:{name} m:val="..."/></m:{pr}>.
func (n *mathNode) prop(pr, name string) (string, bool) {
	return n.child(pr).child(name).val()
}

// hidden reports whether an on/off property such as m:degHide is set.
func (n *mathNode) hidden(pr, name string) bool {
	el := n.child(pr).child(name)
	if el == nil {
		return false
	}
	v, ok := el.val()
	return !ok || v == "1" || v == "on" || v == "true"
}

// ommlToLatex converts one m:oMath fragment (serialized XML) into LaTeX.
func ommlToLatex(fragment, prefix string) (string, error) {
	wrapped := fmt.Sprintf(`<root xmlns:%s=%q xmlns:w=%q>%s</root>`, prefix, nsOMML, nsWord, fragment)
	var root mathNode
	if err := xml.Unmarshal([]byte(wrapped), &root); err != nil {
		return "", fmt.Errorf("parse math: %w", err)
	}
	latex := strings.TrimSpace(latexOf(&root))
	if latex == "" {
		return "", errEmptyMath
	}
	return latex, nil
}

// latexOf renders the children of n in order.
func latexOf(n *mathNode) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for i := range n.Nodes {
		b.WriteString(latexNode(&n.Nodes[i]))
	}
	return b.String()
}

func latexNode(n *mathNode) string {
	switch n.XMLName.Local {
	case "r":
		return runText(n)
	case "f":
		return fraction(n)
	case "sSub":
		return group(latexOf(n.child("e"))) + "_" + group(latexOf(n.child("sub")))
	case "sSup":
		return group(latexOf(n.child("e"))) + "^" + group(latexOf(n.child("sup")))
	case "sSubSup":
		return group(latexOf(n.child("e"))) + "_" + group(latexOf(n.child("sub"))) + "^" + group(latexOf(n.child("sup")))
	case "sPre":
		return "{}_" + group(latexOf(n.child("sub"))) + "^" + group(latexOf(n.child("sup"))) + group(latexOf(n.child("e")))
	case "rad":
		if n.hidden("radPr", "degHide") || strings.TrimSpace(latexOf(n.child("deg"))) == "" {
			return `\sqrt` + group(latexOf(n.child("e")))
		}
		return `\sqrt[` + latexOf(n.child("deg")) + `]` + group(latexOf(n.child("e")))
	case "nary":
		return nary(n)
	case "d":
		return delimiter(n)
	case "func":
		return function(n)
	case "acc":
		return accent(n)
	case "bar":
		if pos, _ := n.prop("barPr", "pos"); pos == "top" {
			return `\overline` + group(latexOf(n.child("e")))
		}
		return `\underline` + group(latexOf(n.child("e")))
	case "limLow":
		return limit(n, "_", `\underset`)
	case "limUpp":
		return limit(n, "^", `\overset`)
	case "groupChr":
		if pos, _ := n.prop("groupChrPr", "pos"); pos == "top" {
			return `\overbrace` + group(latexOf(n.child("e")))
		}
		return `\underbrace` + group(latexOf(n.child("e")))
	case "borderBox":
		return `\boxed` + group(latexOf(n.child("e")))
	case "m":
		return matrix(n)
	case "eqArr":
		var rows []string
		for _, e := range n.children("e") {
			rows = append(rows, latexOf(e))
		}
		return `\begin{array}{l}` + strings.Join(rows, `\\`) + `\end{array}`
	case "rPr", "ctrlPr", "fPr", "radPr", "naryPr", "dPr", "funcPr", "accPr", "barPr",
		"limLowPr", "limUppPr", "groupChrPr", "borderBoxPr", "boxPr", "mPr", "eqArrPr",
		"sSubPr", "sSupPr", "sSubSupPr", "sPrePr", "phantPr", "oMathParaPr":
		return ""
	}
	return latexOf(n)
}

func group(s string) string {
	return "{" + s + "}"
}

func runText(n *mathNode) string {
	var b strings.Builder
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == "t" {
			b.WriteString(n.Nodes[i].Text)
		}
	}
	return symbols(b.String())
}

func fraction(n *mathNode) string {
	num, den := latexOf(n.child("num")), latexOf(n.child("den"))
	switch typ, _ := n.prop("fPr", "type"); typ {
	case "lin":
		return num + "/" + den
	case "noBar":
		return `\genfrac{}{}{0pt}{}` + group(num) + group(den)
	case "skw":
		return `{}^` + group(num) + `/_` + group(den)
	}
	return `\frac` + group(num) + group(den)
}

var naryOperators = map[string]string{
	"∑": `\sum`, "∏": `\prod`, "∐": `\coprod`,
	"∫": `\int`, "∬": `\iint`, "∭": `\iiint`, "∮": `\oint`,
	"⋃": `\bigcup`, "⋂": `\bigcap`, "⋁": `\bigvee`, "⋀": `\bigwedge`,
}

func nary(n *mathNode) string {
	op := `\int`
	if chr, ok := n.prop("naryPr", "chr"); ok {
		if mapped, ok := naryOperators[chr]; ok {
			op = mapped
		} else {
			op = chr
		}
	}
	var b strings.Builder
	b.WriteString(op)
	if !n.hidden("naryPr", "subHide") {
		if sub := latexOf(n.child("sub")); sub != "" {
			b.WriteString("_" + group(sub))
		}
	}
	if !n.hidden("naryPr", "supHide") {
		if sup := latexOf(n.child("sup")); sup != "" {
			b.WriteString("^" + group(sup))
		}
	}
	b.WriteString(group(latexOf(n.child("e"))))
	return b.String()
}

var delimiters = map[string]string{
	"":  ".",
	"{": `\{`, "}": `\}`,
	"‖": `\|`, "⟨": `\langle`, "⟩": `\rangle`,
	"⌈": `\lceil`, "⌉": `\rceil`, "⌊": `\lfloor`, "⌋": `\rfloor`,
}

func delimiterChar(s string) string {
	if mapped, ok := delimiters[s]; ok {
		return mapped
	}
	return s
}

func delimiter(n *mathNode) string {
	beg, end, sep := "(", ")", "|"
	if v, ok := n.prop("dPr", "begChr"); ok {
		beg = v
	}
	if v, ok := n.prop("dPr", "endChr"); ok {
		end = v
	}
	if v, ok := n.prop("dPr", "sepChr"); ok {
		sep = v
	}
	var parts []string
	for _, e := range n.children("e") {
		parts = append(parts, latexOf(e))
	}
	return `\left` + delimiterChar(beg) + strings.Join(parts, sep) + `\right` + delimiterChar(end)
}

var knownFunctions = map[string]bool{
	"sin": true, "cos": true, "tan": true, "cot": true, "sec": true, "csc": true,
	"arcsin": true, "arccos": true, "arctan": true, "sinh": true, "cosh": true, "tanh": true,
	"log": true, "ln": true, "lg": true, "exp": true, "lim": true, "max": true, "min": true,
	"det": true, "sup": true, "inf": true, "arg": true, "deg": true, "dim": true, "gcd": true,
}

func function(n *mathNode) string {
	name := strings.TrimSpace(latexOf(n.child("fName")))
	if knownFunctions[name] {
		name = `\` + name
	}
	return name + group(latexOf(n.child("e")))
}

var accents = map[string]string{
	"\u0302": `\hat`, "\u0303": `\tilde`, "\u0304": `\bar`, "\u0305": `\overline`,
	"\u0307": `\dot`, "\u0308": `\ddot`, "\u20d7": `\vec`, "\u0301": `\acute`,
	"\u0300": `\grave`, "\u0306": `\breve`, "\u030c": `\check`,
}

func accent(n *mathNode) string {
	cmd := `\hat`
	if chr, ok := n.prop("accPr", "chr"); ok {
		if mapped, ok := accents[chr]; ok {
			cmd = mapped
		}
	}
	return cmd + group(latexOf(n.child("e")))
}

func limit(n *mathNode, script, stack string) string {
	base := strings.TrimSpace(latexOf(n.child("e")))
	lim := latexOf(n.child("lim"))
	if strings.HasPrefix(base, `\`) && knownFunctions[strings.TrimPrefix(base, `\`)] {
		return base + script + group(lim)
	}
	return stack + group(lim) + group(base)
}

func matrix(n *mathNode) string {
	var rows []string
	for _, mr := range n.children("mr") {
		var cells []string
		for _, e := range mr.children("e") {
			cells = append(cells, latexOf(e))
		}
		rows = append(rows, strings.Join(cells, "&"))
	}
	return `\begin{matrix}` + strings.Join(rows, `\\`) + `\end{matrix}`
}

var symbolTable = map[rune]string{
	'α': `\alpha `, 'β': `\beta `, 'γ': `\gamma `, 'δ': `\delta `, 'ε': `\epsilon `,
	'ζ': `\zeta `, 'η': `\eta `, 'θ': `\theta `, 'ι': `\iota `, 'κ': `\kappa `,
	'λ': `\lambda `, 'μ': `\mu `, 'ν': `\nu `, 'ξ': `\xi `, 'π': `\pi `, 'ρ': `\rho `,
	'σ': `\sigma `, 'τ': `\tau `, 'υ': `\upsilon `, 'φ': `\phi `, 'χ': `\chi `,
	'ψ': `\psi `, 'ω': `\omega `, 'Γ': `\Gamma `, 'Δ': `\Delta `, 'Θ': `\Theta `,
	'Λ': `\Lambda `, 'Ξ': `\Xi `, 'Π': `\Pi `, 'Σ': `\Sigma `, 'Φ': `\Phi `,
	'Ψ': `\Psi `, 'Ω': `\Omega `,
	'∞': `\infty `, '±': `\pm `, '∓': `\mp `, '×': `\times `, '÷': `\div `, '·': `\cdot `,
	'≤': `\leq `, '≥': `\geq `, '≠': `\neq `, '≈': `\approx `, '≡': `\equiv `, '∝': `\propto `,
	'→': `\rightarrow `, '←': `\leftarrow `, '⇒': `\Rightarrow `, '⇔': `\Leftrightarrow `,
	'∈': `\in `, '∉': `\notin `, '⊂': `\subset `, '⊆': `\subseteq `, '∪': `\cup `, '∩': `\cap `,
	'∀': `\forall `, '∃': `\exists `, '∂': `\partial `, '∇': `\nabla `, '…': `\ldots `,
	'{': `\{`, '}': `\}`, '#': `\#`, '&': `\&`, '$': `\$`, '%': `\%`, '_': `\_`,
}

// symbols maps Unicode math symbols and LaTeX-special characters in run text.
func symbols(s string) string {
	var b strings.Builder
	for _, r := range s {
		if mapped, ok := symbolTable[r]; ok {
			b.WriteString(mapped)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
