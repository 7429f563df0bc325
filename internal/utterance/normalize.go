// Package utterance turns raw speech transcripts into structured order
// entities: a normalization pass that canonicalises the text, and an
// extraction pass that finds quantities, catalog items, modifier changes and
// global intents. Keeping normalization separate is what keeps the matching
// rules plain lookups instead of a pile of per-phrase exceptions.
package utterance

import "strings"

// requestPrefixes are leading request-verb phrases. At most one is stripped,
// and only when the utterance starts with it. Apostrophes are removed before
// this runs, so "i'd like" is listed as "id like".
var requestPrefixes = []string{
	"i would like to order",
	"i would like",
	"id like to order",
	"id like",
	"i will take",
	"ill take",
	"i will have",
	"ill have",
	"can i have",
	"can i get",
	"could i have",
	"could i get",
	"may i have",
	"we would like",
	"well take",
	"i want to order",
	"i want",
	"give me",
}

// fillerPhrases are politeness and greeting phrases removed wherever they
// appear. Multi-word phrases are listed before their single-word parts so the
// longest form wins.
var fillerPhrases = []string{
	"good morning",
	"good afternoon",
	"good evening",
	"thank you very much",
	"thank you",
	"thanks a lot",
	"thanks",
	"please",
	"hello",
	"hi there",
	"hey",
	"um",
	"uh",
	"erm",
}

// Normalize canonicalises a raw transcript: lowercase, apostrophes removed,
// punctuation stripped except the segment delimiters (comma, semicolon,
// period), filler phrases removed, and at most one leading request-verb
// phrase dropped. Never errors; empty input yields empty output.
func Normalize(raw string) string {
	s := strings.ToLower(raw)

	// Apostrophes vanish entirely so contractions collapse ("that's" → "thats").
	s = strings.NewReplacer("'", "", "’", "", "`", "").Replace(s)

	// Everything else that is not a letter, digit, space or segment delimiter
	// becomes a space.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ',' || r == ';' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	s = b.String()

	for _, f := range fillerPhrases {
		s = removePhrase(s, f)
	}

	s = collapseSpaces(s)
	s = strings.Trim(s, " ,;.")

	for _, p := range requestPrefixes {
		if strings.HasPrefix(s, p+" ") {
			s = strings.TrimPrefix(s, p+" ")
			break
		}
		if s == p {
			return ""
		}
	}

	return collapseSpaces(strings.Trim(s, " ,;."))
}

// removePhrase deletes whole-word occurrences of phrase from s.
func removePhrase(s, phrase string) string {
	for {
		idx := indexWord(s, phrase)
		if idx < 0 {
			return s
		}
		s = s[:idx] + " " + s[idx+len(phrase):]
	}
}

// indexWord finds phrase in s at a word boundary, or -1.
func indexWord(s, phrase string) int {
	from := 0
	for {
		idx := strings.Index(s[from:], phrase)
		if idx < 0 {
			return -1
		}
		idx += from
		end := idx + len(phrase)
		startOK := idx == 0 || !isWordChar(s[idx-1])
		endOK := end == len(s) || !isWordChar(s[end])
		if startOK && endOK {
			return idx
		}
		from = idx + 1
	}
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
