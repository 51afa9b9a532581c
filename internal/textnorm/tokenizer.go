package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type substitution struct {
	re   *regexp.Regexp
	repl string
}

func sub(pattern, repl string) substitution {
	return substitution{re: regexp.MustCompile(pattern), repl: repl}
}

// space matches every rune unicode treats as whitespace. RE2's \s is ASCII only.
const space = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`

// boundedSub is a substitution whose match must sit on unicode word
// boundaries. RE2's \b only knows ASCII word characters.
type boundedSub struct {
	re         *regexp.Regexp
	repl       string
	leftBound  bool
	rightBound bool
}

func bounded(pattern, repl string, left, right bool) boundedSub {
	return boundedSub{re: regexp.MustCompile(pattern), repl: repl, leftBound: left, rightBound: right}
}

func (s boundedSub) apply(text string) string {
	matches := s.re.FindAllStringSubmatchIndex(text, -1)
	if matches == nil {
		return text
	}

	var out []byte
	last := 0
	for _, m := range matches {
		if (s.leftBound && !atWordBoundary(text, m[0])) || (s.rightBound && !atWordBoundary(text, m[1])) {
			continue
		}
		out = append(out, text[last:m[0]]...)
		out = s.re.ExpandString(out, s.repl, text, m)
		last = m[1]
	}
	return string(append(out, text[last:]...))
}

func atWordBoundary(text string, i int) bool {
	before, _ := utf8.DecodeLastRuneInString(text[:i])
	after, _ := utf8.DecodeRuneInString(text[i:])
	return (i > 0 && isWordRune(before)) != (i < len(text) && isWordRune(after))
}

// Treebank word tokenization rules, applied in order to a single sentence.
var (
	startingQuotes = []substitution{
		sub("([«“‘„]|[`]+)", " ${1} "),
		sub(`^"`, "``"),
		sub("(``)", " ${1} "),
		sub(`([ (\[{<])("|'')`, "${1} `` "),
	}

	punctuation = []substitution{
		sub(`([^.])(\.)([\])}>"'»”’ ]*)`+space+`*$`, "${1} ${2} ${3} "),
		sub(`([:,])([^\p{Nd}])`, " ${1} ${2}"),
		sub(`([:,])$`, " ${1} "),
		sub(`\.{2,}`, " ${0} "),
		sub(`[;@#$%&]`, " ${0} "),
		sub(`([^.])(\.)([\])}>"']*)`+space+`*$`, "${1} ${2}${3} "),
		sub(`[?!]`, " ${0} "),
		sub(`([^'])' `, "${1} ' "),
		sub(`[*]`, " ${0} "),
	}

	parensBrackets = sub(`[\]\[(){}<>]`, " ${0} ")
	doubleDashes   = sub(`--`, " -- ")

	endingQuotes = []substitution{
		sub("([»”’])", " ${1} "),
		sub(`''`, " '' "),
		sub(`"`, " '' "),
		sub(space+`+`, " "),
		sub(`([^' ])('[sS]|'[mM]|'[dD]|') `, "${1} ${2} "),
		sub(`([^' ])('ll|'LL|'re|'RE|'ve|'VE|n't|N'T) `, "${1} ${2} "),
	}

	contractions = []boundedSub{
		bounded(`(?i)(can)(not)`, " ${1} ${2} ", true, true),
		bounded(`(?i)(d)('ye)`, " ${1} ${2} ", true, true),
		bounded(`(?i)(gim)(me)`, " ${1} ${2} ", true, true),
		bounded(`(?i)(gon)(na)`, " ${1} ${2} ", true, true),
		bounded(`(?i)(got)(ta)`, " ${1} ${2} ", true, true),
		bounded(`(?i)(lem)(me)`, " ${1} ${2} ", true, true),
		bounded(`(?i)(more)('n)`, " ${1} ${2} ", true, true),
		bounded(`(?i)(wan)(na)(`+space+`)`, " ${1} ${2} ${3}", true, false),
		bounded(`(?i) ('t)(is)`, " ${1} ${2} ", false, true),
		bounded(`(?i) ('t)(was)`, " ${1} ${2} ", false, true),
	}
)

// Tokenize splits text into sentences and each sentence into Treebank-style
// word tokens.
func Tokenize(text string) []string {
	var tokens []string
	for _, sentence := range SplitSentences(text) {
		tokens = append(tokens, tokenizeSentence(sentence)...)
	}
	return tokens
}

func tokenizeSentence(text string) []string {
	for _, s := range startingQuotes {
		text = s.re.ReplaceAllString(text, s.repl)
	}
	text = splitQuotedLetter(text)

	for _, s := range punctuation {
		text = s.re.ReplaceAllString(text, s.repl)
	}

	text = parensBrackets.re.ReplaceAllString(text, parensBrackets.repl)
	text = doubleDashes.re.ReplaceAllString(text, doubleDashes.repl)

	text = " " + text + " "

	for _, s := range endingQuotes {
		text = s.re.ReplaceAllString(text, s.repl)
	}
	for _, s := range contractions {
		text = s.apply(text)
	}

	return strings.Fields(text)
}

// splitQuotedLetter separates an apostrophe from a following single word
// character ("'a" -> "' a") unless the pair forms a clitic such as 's or 't.
func splitQuotedLetter(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text) + 8)
	for i, r := range runes {
		b.WriteRune(r)
		if r != '\'' || i+1 >= len(runes) {
			continue
		}
		next := runes[i+1]
		if !isWordRune(next) || strings.ContainsRune("mtsdnMTSDN", next) {
			continue
		}
		if i+2 < len(runes) && isWordRune(runes[i+2]) {
			continue
		}
		b.WriteRune(' ')
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// IsAlnum reports whether token is non-empty and made only of letters and digits.
func IsAlnum(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}
