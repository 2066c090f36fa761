// Package moderation masks blocked words in chat text.
package moderation

import (
	"fmt"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Censor replaces blocked words with a mask rune. Matching ignores case,
// punctuation inside a word and common digit-for-letter substitutions, so
// "H3ll-o" matches "hello". Whitespace separates words and a match must cover
// whole words, so "class" never matches "ass". Only the original characters
// of the match are masked.
type Censor struct {
	machine *goahocorasick.Machine
	mask    rune
}

// NewCensor builds the automaton for words. It returns nil when no usable
// word is given, which callers treat as "no filtering".
func NewCensor(words []string, mask rune) (*Censor, error) {
	patterns := lo.FilterMap(words, func(w string, _ int) ([]rune, bool) {
		p, _ := normalize([]rune(w))
		return p, len(p) > 0
	})
	if len(patterns) == 0 {
		return nil, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build censor automaton: %w", err)
	}
	return &Censor{machine: m, mask: mask}, nil
}

// Censor returns text with every blocked word masked.
func (c *Censor) Censor(text string) string {
	original := []rune(text)
	folded, index := normalize(original)
	if len(folded) == 0 {
		return text
	}

	terms := c.machine.MultiPatternSearch(folded, false)
	if len(terms) == 0 {
		return text
	}

	masked := false
	for _, term := range terms {
		start, end := term.Pos, term.Pos+len(term.Word)
		if start < 0 || end > len(index) || !wordBoundary(folded, start, end) {
			continue
		}
		for i := index[start]; i <= index[end-1]; i++ {
			if !unicode.IsSpace(original[i]) {
				original[i] = c.mask
			}
		}
		masked = true
	}
	if !masked {
		return text
	}
	return string(original)
}

// normalize folds in and returns, for each kept rune, its position in in.
// Runs of whitespace collapse to one separator and outer whitespace is dropped.
func normalize(in []rune) ([]rune, []int) {
	out := make([]rune, 0, len(in))
	index := make([]int, 0, len(in))
	for i, r := range in {
		if unicode.IsSpace(r) {
			if len(out) > 0 && out[len(out)-1] != ' ' {
				out = append(out, ' ')
				index = append(index, i)
			}
			continue
		}
		f, keep := fold(r)
		if !keep {
			continue
		}
		out = append(out, f)
		index = append(index, i)
	}
	if n := len(out); n > 0 && out[n-1] == ' ' {
		out, index = out[:n-1], index[:n-1]
	}
	return out, index
}

// wordBoundary reports whether folded[start:end] begins and ends a word.
func wordBoundary(folded []rune, start, end int) bool {
	return (start == 0 || folded[start-1] == ' ') &&
		(end == len(folded) || folded[end] == ' ')
}

func fold(r rune) (rune, bool) {
	switch r {
	case '4', '@':
		r = 'a'
	case '3':
		r = 'e'
	case '1':
		r = 'i'
	case '0':
		r = 'o'
	case '5', '$':
		r = 's'
	}
	if unicode.IsPunct(r) || unicode.IsSymbol(r) {
		return 0, false
	}
	return unicode.ToLower(r), true
}
