// Package phonetic matches spoken words against menu vocabulary using Double
// Metaphone codes with Jaro-Winkler ranking. Telephony transcripts routinely
// mangle product names ("margarita", "peperoni", "tirra misu"); an exact
// substring lookup misses those, so the entity extractor falls back to this
// matcher whenever the exact pass finds nothing.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.72
	defaultFuzzyThreshold    = 0.86
)

// Option configures a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score a metaphone
// candidate needs to be accepted. Default: 0.72.
func WithPhoneticThreshold(t float64) Option {
	return func(m *Matcher) { m.phoneticThreshold = t }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for the pure
// similarity fallback used when no metaphone candidate exists. Default: 0.86.
func WithFuzzyThreshold(t float64) Option {
	return func(m *Matcher) { m.fuzzyThreshold = t }
}

// Matcher ranks catalog labels against spoken phrases. It is read-only after
// construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a Matcher with the supplied options applied.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// BestLabel returns the label most phonetically similar to phrase. A label is
// a candidate when any of its Double Metaphone codes overlaps a code of the
// phrase; candidates are ranked by Jaro-Winkler similarity and must clear the
// phonetic threshold. When no label overlaps phonetically, a pure
// Jaro-Winkler pass with the (stricter) fuzzy threshold is tried instead.
// ok is false when nothing clears its threshold.
func (m *Matcher) BestLabel(phrase string, labels []string) (label string, score float64, ok bool) {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" || len(labels) == 0 {
		return "", 0, false
	}
	phraseTokens := strings.Fields(phrase)
	phraseCodes := metaphoneCodes(phraseTokens)

	var (
		bestLabel    string
		bestScore    float64
		bestPhonetic bool
	)

	for _, l := range labels {
		lower := strings.ToLower(strings.TrimSpace(l))
		if lower == "" {
			continue
		}
		labelTokens := strings.Fields(lower)
		phonetic := overlap(phraseCodes, metaphoneCodes(labelTokens))
		score := similarity(phraseTokens, labelTokens, phrase, lower)

		switch {
		case phonetic && score >= m.phoneticThreshold:
			if !bestPhonetic || score > bestScore {
				bestLabel, bestScore, bestPhonetic = l, score, true
			}
		case !phonetic && !bestPhonetic && score >= m.fuzzyThreshold && score > bestScore:
			bestLabel, bestScore = l, score
		}
	}

	if bestLabel == "" {
		return "", 0, false
	}
	return bestLabel, bestScore, true
}

// metaphoneCodes returns the union of Double Metaphone codes over tokens,
// excluding empty codes from very short or vowel-only words.
func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		primary, secondary := matchr.DoubleMetaphone(t)
		if primary != "" {
			codes[primary] = struct{}{}
		}
		if secondary != "" {
			codes[secondary] = struct{}{}
		}
	}
	return codes
}

func overlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for c := range a {
		if _, ok := b[c]; ok {
			return true
		}
	}
	return false
}

// similarity is the best Jaro-Winkler score across full strings, space-less
// concatenations, and pairwise tokens. Multi-word labels like "Ice Tea" often
// come through as one token ("icetea"), hence the concatenated pass.
func similarity(aTokens, bTokens []string, aFull, bFull string) float64 {
	score := matchr.JaroWinkler(aFull, bFull, false)

	if len(aTokens) > 1 || len(bTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(aTokens, ""), strings.Join(bTokens, ""), false); s > score {
			score = s
		}
	}
	for _, at := range aTokens {
		for _, bt := range bTokens {
			if s := matchr.JaroWinkler(at, bt, false); s > score {
				score = s
			}
		}
	}
	return score
}
