// Package translit converts Uzbek text between the Latin and Cyrillic
// orthographies.
//
// Conversion is a single left-to-right pass over the input. At each position
// the longest matching multi-character rule wins and its span is consumed;
// otherwise the letter e gets its position-dependent form; otherwise a
// one-to-one lookup applies. Characters without a mapping pass through.
package translit

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Script identifies a writing system.
type Script int

const (
	Latin Script = iota
	Cyrillic
)

// String returns the short preference value for the script ("lat" or "cyr").
func (s Script) String() string {
	if s == Cyrillic {
		return "cyr"
	}
	return "lat"
}

// Label returns the script name written in the script itself.
func (s Script) Label() string {
	if s == Cyrillic {
		return "КИРИЛЛ"
	}
	return "LOTIN"
}

// Toggle returns the other script.
func (s Script) Toggle() Script {
	if s == Cyrillic {
		return Latin
	}
	return Cyrillic
}

// ParseScript accepts "lat", "latin", "cyr" and "cyrillic" in any case.
func ParseScript(v string) (Script, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "lat", "latin":
		return Latin, nil
	case "cyr", "cyrillic":
		return Cyrillic, nil
	}
	return Latin, fmt.Errorf("unknown script %q", v)
}

// ToScript renders text in the target script. It never fails; text already
// in the target script comes back unchanged.
func ToScript(text string, target Script) string {
	if target == Cyrillic {
		return ToCyrillic(text)
	}
	return ToLatin(text)
}

// Project renders committed text followed by the in-flight partial segment,
// separated by a single space when both are present.
func Project(committed, partial string, target Script) string {
	text := committed
	if partial != "" {
		if committed != "" {
			text += " "
		}
		text += partial
	}
	return ToScript(text, target)
}

// rule rewrites a span of source runes.
type rule struct {
	from []rune
	to   string
}

// table holds multi-character rules bucketed by first rune, longest first.
type table struct {
	multi  map[rune][]rule
	single map[rune]string
}

func newTable(multi map[string]string, single map[rune]string) *table {
	t := &table{multi: make(map[rune][]rule), single: single}
	for from, to := range multi {
		r := []rune(from)
		t.multi[r[0]] = append(t.multi[r[0]], rule{from: r, to: to})
	}
	for k := range t.multi {
		rules := t.multi[k]
		sort.Slice(rules, func(i, j int) bool {
			if len(rules[i].from) != len(rules[j].from) {
				return len(rules[i].from) > len(rules[j].from)
			}
			return string(rules[i].from) < string(rules[j].from)
		})
	}
	return t
}

// match returns the longest multi-character rule starting at src[i].
func (t *table) match(src []rune, i int) (rule, bool) {
	for _, r := range t.multi[src[i]] {
		if i+len(r.from) > len(src) {
			continue
		}
		ok := true
		for j, c := range r.from {
			if src[i+j] != c {
				ok = false
				break
			}
		}
		if ok {
			return r, true
		}
	}
	return rule{}, false
}

// wordStart reports whether src[i] begins a word: start of input or preceded
// by a non-letter.
func wordStart(src []rune, i int) bool {
	return i == 0 || !unicode.IsLetter(src[i-1])
}

// maps reports whether c starts any rule of the table.
func (t *table) maps(c rune) bool {
	if _, ok := t.single[c]; ok {
		return true
	}
	_, ok := t.multi[c]
	return ok
}

// normalize composes a letter followed by a combining mark into one rune
// when the composed letter is one the converter maps, so decomposed й, ў and
// ё are recognised. Every other rune, marks included, is kept as written.
func normalize(text string, mapped func(rune) bool) []rune {
	src := []rune(text)
	out := src[:0:0]
	for i := 0; i < len(src); i++ {
		if i+1 < len(src) && unicode.Is(unicode.Mn, src[i+1]) {
			c := []rune(norm.NFC.String(string(src[i : i+2])))
			if len(c) == 1 && mapped(c[0]) {
				out = append(out, c[0])
				i++
				continue
			}
		}
		out = append(out, src[i])
	}
	return out
}
