package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations that do not end a sentence when followed by a period.
// Input reaching the splitter is already lowercased, so an abbreviation
// never qualifies as a sentence break.
var abbreviations = map[string]struct{}{
	"a.m": {}, "p.m": {}, "e.g": {}, "i.e": {}, "etc": {}, "vs": {}, "cf": {},
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "st": {}, "jr": {}, "sr": {},
	"inc": {}, "ltd": {}, "co": {}, "corp": {}, "dept": {}, "univ": {}, "assn": {},
	"u.s": {}, "u.k": {}, "u.n": {}, "u.s.a": {}, "n.y": {}, "d.c": {},
	"jan": {}, "feb": {}, "apr": {}, "jun": {}, "jul": {}, "aug": {},
	"sep": {}, "sept": {}, "oct": {}, "nov": {}, "dec": {},
	"gen": {}, "gov": {}, "sen": {}, "rep": {}, "col": {}, "lt": {}, "sgt": {}, "capt": {},
	"ft": {}, "mt": {}, "ave": {}, "blvd": {}, "approx": {},
}

var numberToken = regexp.MustCompile(`^-?[.,]?\p{Nd}[\p{Nd},.\-]*\.?$`)

const (
	closingPunct = `"')]}’”»`
	leadingPunct = "(\"`{[:;&#*@)}]-,"
)

// SplitSentences breaks text at sentence-final punctuation followed by
// whitespace. Periods after abbreviations do not break; periods after
// single-letter initials and numbers break only when the next word does not
// start with a lowercase letter.
func SplitSentences(text string) []string {
	spans := fieldSpans(text)
	if len(spans) == 0 {
		return nil
	}

	var sentences []string
	start := spans[0][0]
	for i := 0; i < len(spans)-1; i++ {
		word := text[spans[i][0]:spans[i][1]]
		next := text[spans[i+1][0]:spans[i+1][1]]
		if !endsSentence(word, next) {
			continue
		}
		sentences = append(sentences, text[start:spans[i][1]])
		start = spans[i+1][0]
	}
	sentences = append(sentences, strings.TrimRightFunc(text[start:], unicode.IsSpace))
	return sentences
}

func fieldSpans(text string) [][2]int {
	var spans [][2]int
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}

func endsSentence(word, next string) bool {
	core := strings.TrimRight(word, closingPunct)
	if core == "" {
		return false
	}

	switch core[len(core)-1] {
	case '?', '!':
		return true
	case '.':
	default:
		return false
	}

	if strings.HasSuffix(core, "..") {
		// ellipsis, continues into a lowercase word
		return !startsLower(next)
	}

	base := strings.TrimLeft(strings.TrimSuffix(core, "."), leadingPunct)
	if base == "" {
		return true
	}
	if isAbbreviation(base) {
		return false
	}
	if isInitial(base) || numberToken.MatchString(base+".") {
		return !startsLower(next)
	}
	return true
}

func isAbbreviation(base string) bool {
	if _, ok := abbreviations[base]; ok {
		return true
	}
	if i := strings.LastIndexByte(base, '-'); i >= 0 {
		_, ok := abbreviations[base[i+1:]]
		return ok
	}
	return false
}

func isInitial(base string) bool {
	runes := []rune(base)
	return len(runes) == 1 && unicode.IsLetter(runes[0])
}

func startsLower(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsLower(r)
}
