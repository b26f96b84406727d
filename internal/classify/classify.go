// Package classify converts a raw inbound message into a tagged input the
// resolver can match against. Classification is pure and total: every input
// maps to exactly one kind and never fails.
package classify

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindSelection
)

// Input is the classified form of one inbound message.
type Input struct {
	Kind        Kind
	SelectionID string   // set when Kind == KindSelection
	Number      int      // set when Kind == KindNumber
	Raw         string   // trimmed raw text (digits already de-emojified)
	Normalized  string   // lowercased, whitespace-trimmed text
	Keywords    []string // whitespace tokens longer than 2 runes, diacritics preserved
}

// keycap emoji digits as typed by mobile keyboards, with and without the
// variation selector
var emojiDigits = strings.NewReplacer(
	"0️⃣", "0", "1️⃣", "1", "2️⃣", "2",
	"3️⃣", "3", "4️⃣", "4", "5️⃣", "5",
	"6️⃣", "6", "7️⃣", "7", "8️⃣", "8",
	"9️⃣", "9",
	"0⃣", "0", "1⃣", "1", "2⃣", "2", "3⃣", "3",
	"4⃣", "4", "5⃣", "5", "6⃣", "6", "7⃣", "7",
	"8⃣", "8", "9⃣", "9",
)

// Classify tags one inbound message. selectionID is the row/button id the
// transport reported for interactive replies; when present it wins over the
// text body.
func Classify(text, selectionID string) Input {
	if id := strings.TrimSpace(selectionID); id != "" {
		return Input{Kind: KindSelection, SelectionID: id, Raw: id, Normalized: strings.ToLower(id)}
	}

	raw := strings.TrimSpace(emojiDigits.Replace(text))
	normalized := strings.ToLower(raw)

	if n, ok := asNumber(raw); ok {
		return Input{Kind: KindNumber, Number: n, Raw: raw, Normalized: normalized}
	}

	return Input{
		Kind:       KindText,
		Raw:        raw,
		Normalized: normalized,
		Keywords:   extractKeywords(normalized),
	}
}

func asNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func extractKeywords(normalized string) []string {
	var keywords []string
	for _, token := range strings.Fields(normalized) {
		if utf8.RuneCountInString(token) > 2 {
			keywords = append(keywords, token)
		}
	}
	return keywords
}
