package textnorm

// Porter stemmer with the NLTK extensions: an irregular-forms table, short
// words left untouched, 4-letter "ies"/"ied" handling, the "alli"/"fulli"/
// "logi" step-2 rules and the 2-letter cvc case.

var irregularForms = map[string]string{
	"sky":      "sky",
	"skies":    "sky",
	"dying":    "die",
	"lying":    "lie",
	"tying":    "tie",
	"news":     "news",
	"innings":  "inning",
	"inning":   "inning",
	"outings":  "outing",
	"outing":   "outing",
	"cannings": "canning",
	"canning":  "canning",
	"howe":     "howe",
	"proceed":  "proceed",
	"exceed":   "exceed",
	"succeed":  "succeed",
}

type word []rune

func (w word) hasSuffix(suffix string) bool {
	s := []rune(suffix)
	if len(s) > len(w) {
		return false
	}
	off := len(w) - len(s)
	for i, r := range s {
		if w[off+i] != r {
			return false
		}
	}
	return true
}

// trim returns w without its last n runes, as a fresh slice.
func (w word) trim(n int) word {
	out := make(word, len(w)-n)
	copy(out, w[:len(w)-n])
	return out
}

func (w word) plus(suffix string) word {
	out := make(word, 0, len(w)+len(suffix))
	out = append(out, w...)
	return append(out, []rune(suffix)...)
}

func (w word) replaceSuffix(suffix, replacement string) word {
	return w.trim(len([]rune(suffix))).plus(replacement)
}

func isConsonant(w word, i int) bool {
	switch w[i] {
	case 'a', 'e', 'i', 'o', 'u':
		return false
	case 'y':
		if i == 0 {
			return true
		}
		return !isConsonant(w, i-1)
	}
	return true
}

// measure counts the vowel-consonant sequences in w.
func measure(w word) int {
	m := 0
	prevVowel := false
	for i := range w {
		c := isConsonant(w, i)
		if c && prevVowel {
			m++
		}
		prevVowel = !c
	}
	return m
}

func hasPositiveMeasure(w word) bool {
	return measure(w) > 0
}

func containsVowel(w word) bool {
	for i := range w {
		if !isConsonant(w, i) {
			return true
		}
	}
	return false
}

func endsDoubleConsonant(w word) bool {
	n := len(w)
	return n >= 2 && w[n-1] == w[n-2] && isConsonant(w, n-1)
}

func endsCVC(w word) bool {
	n := len(w)
	if n >= 3 &&
		isConsonant(w, n-3) &&
		!isConsonant(w, n-2) &&
		isConsonant(w, n-1) &&
		w[n-1] != 'w' && w[n-1] != 'x' && w[n-1] != 'y' {
		return true
	}
	return n == 2 && !isConsonant(w, 0) && isConsonant(w, 1)
}

type rule struct {
	suffix      string
	replacement string
	// condition is evaluated on the stem left after removing suffix; nil always holds.
	condition func(stem word) bool
}

// doubleConsonant marks a rule matching any doubled consonant ending.
const doubleConsonant = "*d"

// applyRules applies the first rule whose suffix matches. A matching rule
// whose condition fails stops the search and leaves w unchanged.
func applyRules(w word, rules []rule) word {
	for _, r := range rules {
		if r.suffix == doubleConsonant && endsDoubleConsonant(w) {
			stem := w.trim(2)
			if r.condition == nil || r.condition(stem) {
				return stem.plus(r.replacement)
			}
			return w
		}
		if w.hasSuffix(r.suffix) {
			stem := w.trim(len([]rune(r.suffix)))
			if r.condition == nil || r.condition(stem) {
				return stem.plus(r.replacement)
			}
			return w
		}
	}
	return w
}

func step1a(w word) word {
	if w.hasSuffix("ies") && len(w) == 4 {
		return w.replaceSuffix("ies", "ie")
	}
	return applyRules(w, []rule{
		{"sses", "ss", nil},
		{"ies", "i", nil},
		{"ss", "ss", nil},
		{"s", "", nil},
	})
}

func step1b(w word) word {
	if w.hasSuffix("ied") {
		if len(w) == 4 {
			return w.replaceSuffix("ied", "ie")
		}
		return w.replaceSuffix("ied", "i")
	}

	if w.hasSuffix("eed") {
		stem := w.trim(3)
		if measure(stem) > 0 {
			return stem.plus("ee")
		}
		return w
	}

	var stem word
	matched := false
	for _, suffix := range []string{"ed", "ing"} {
		if w.hasSuffix(suffix) {
			stem = w.trim(len(suffix))
			if containsVowel(stem) {
				matched = true
				break
			}
		}
	}
	if !matched {
		return w
	}

	last := stem[len(stem)-1]
	return applyRules(stem, []rule{
		{"at", "ate", nil},
		{"bl", "ble", nil},
		{"iz", "ize", nil},
		{doubleConsonant, string(last), func(word) bool {
			return last != 'l' && last != 's' && last != 'z'
		}},
		{"", "e", func(s word) bool {
			return measure(s) == 1 && endsCVC(s)
		}},
	})
}

func step1c(w word) word {
	return applyRules(w, []rule{
		{"y", "i", func(stem word) bool {
			return len(stem) > 1 && isConsonant(stem, len(stem)-1)
		}},
	})
}

func step2(w word) word {
	if w.hasSuffix("alli") && hasPositiveMeasure(w.trim(4)) {
		return step2(w.replaceSuffix("alli", "al"))
	}

	return applyRules(w, []rule{
		{"ational", "ate", hasPositiveMeasure},
		{"tional", "tion", hasPositiveMeasure},
		{"enci", "ence", hasPositiveMeasure},
		{"anci", "ance", hasPositiveMeasure},
		{"izer", "ize", hasPositiveMeasure},
		{"bli", "ble", hasPositiveMeasure},
		{"alli", "al", hasPositiveMeasure},
		{"entli", "ent", hasPositiveMeasure},
		{"eli", "e", hasPositiveMeasure},
		{"ousli", "ous", hasPositiveMeasure},
		{"ization", "ize", hasPositiveMeasure},
		{"ation", "ate", hasPositiveMeasure},
		{"ator", "ate", hasPositiveMeasure},
		{"alism", "al", hasPositiveMeasure},
		{"iveness", "ive", hasPositiveMeasure},
		{"fulness", "ful", hasPositiveMeasure},
		{"ousness", "ous", hasPositiveMeasure},
		{"aliti", "al", hasPositiveMeasure},
		{"iviti", "ive", hasPositiveMeasure},
		{"biliti", "ble", hasPositiveMeasure},
		{"fulli", "ful", hasPositiveMeasure},
		// the "l" stays with the stem so short stems like "geo" still qualify
		{"logi", "log", func(word) bool {
			return hasPositiveMeasure(w.trim(3))
		}},
	})
}

func step3(w word) word {
	return applyRules(w, []rule{
		{"icate", "ic", hasPositiveMeasure},
		{"ative", "", hasPositiveMeasure},
		{"alize", "al", hasPositiveMeasure},
		{"iciti", "ic", hasPositiveMeasure},
		{"ical", "ic", hasPositiveMeasure},
		{"ful", "", hasPositiveMeasure},
		{"ness", "", hasPositiveMeasure},
	})
}

func step4(w word) word {
	gt1 := func(stem word) bool { return measure(stem) > 1 }

	return applyRules(w, []rule{
		{"al", "", gt1},
		{"ance", "", gt1},
		{"ence", "", gt1},
		{"er", "", gt1},
		{"ic", "", gt1},
		{"able", "", gt1},
		{"ible", "", gt1},
		{"ant", "", gt1},
		{"ement", "", gt1},
		{"ment", "", gt1},
		{"ent", "", gt1},
		{"ion", "", func(stem word) bool {
			if measure(stem) <= 1 {
				return false
			}
			last := stem[len(stem)-1]
			return last == 's' || last == 't'
		}},
		{"ou", "", gt1},
		{"ism", "", gt1},
		{"ate", "", gt1},
		{"iti", "", gt1},
		{"ous", "", gt1},
		{"ive", "", gt1},
		{"ize", "", gt1},
	})
}

func step5a(w word) word {
	if !w.hasSuffix("e") {
		return w
	}
	stem := w.trim(1)
	m := measure(stem)
	if m > 1 {
		return stem
	}
	if m == 1 && !endsCVC(stem) {
		return stem
	}
	return w
}

func step5b(w word) word {
	return applyRules(w, []rule{
		{"ll", "l", func(word) bool {
			return measure(w.trim(1)) > 1
		}},
	})
}

// Stem reduces a lowercase token to its Porter stem.
func Stem(token string) string {
	if stem, ok := irregularForms[token]; ok {
		return stem
	}

	w := word(token)
	if len(w) <= 2 {
		return token
	}

	w = step1a(w)
	w = step1b(w)
	w = step1c(w)
	w = step2(w)
	w = step3(w)
	w = step4(w)
	w = step5a(w)
	w = step5b(w)

	return string(w)
}
