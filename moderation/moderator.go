// Package moderation masks forbidden words in chat text before it is stored.
package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

// Moderator replaces every rune of a forbidden word by censoredChar.
// Matching ignores case, punctuation and spacing, and reads common leet substitutions.
type Moderator struct {
	log          *slog.Logger
	matcher      *goahocorasick.Machine
	censoredChar rune
}

type textMapping struct {
	normalized []rune
	origIdx    []int // index in the original runes of each normalized rune
}

// NewModerator builds the automaton. An empty dictionary yields a moderator that lets everything through.
func NewModerator(censoredWords []string, censoredChar rune, log *slog.Logger) (*Moderator, error) {
	patterns := lo.Filter(lo.Map(censoredWords, func(word string, _ int) []rune {
		return normalize([]rune(word)).normalized
	}), func(pattern []rune, _ int) bool {
		return len(pattern) > 0
	})
	moderator := &Moderator{log: log, censoredChar: censoredChar}
	if len(patterns) == 0 {
		log.Debug("No censored word, moderation disabled")
		return moderator, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	moderator.matcher = m
	return moderator, nil
}

func (m *Moderator) Censor(original string) string {
	if m.matcher == nil {
		return original
	}
	origRunes := []rune(original)
	mapping := normalize(origRunes)
	if len(mapping.normalized) == 0 {
		return original
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original
	}
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		// Noise between the first and last matched rune is masked too
		for i := mapping.origIdx[start]; i <= mapping.origIdx[end-1]; i++ {
			origRunes[i] = m.censoredChar
		}
	}
	m.log.Debug("Message censored", "matches", len(spans))
	return string(origRunes)
}

func normalize(runes []rune) textMapping {
	mapping := textMapping{
		normalized: make([]rune, 0, len(runes)),
		origIdx:    make([]int, 0, len(runes)),
	}
	for i, r := range runes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		mapping.normalized = append(mapping.normalized, unicode.ToLower(clean))
		mapping.origIdx = append(mapping.origIdx, i)
	}
	return mapping
}

// simplifyRune maps leet speak characters back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
