package textnorm

import "testing"

func TestStem(t *testing.T) {
	cases := map[string]string{
		// short words are untouched
		"a":  "a",
		"is": "is",
		// irregular forms
		"dying": "die",
		"lying": "lie",
		"skies": "sky",
		"news":  "news",
		// step 1
		"caresses":  "caress",
		"ponies":    "poni",
		"ties":      "tie",
		"cats":      "cat",
		"feed":      "feed",
		"agreed":    "agre",
		"plastered": "plaster",
		"motoring":  "motor",
		"sing":      "sing",
		"conflated": "conflat",
		"hopping":   "hop",
		"winning":   "win",
		"spied":     "spi",
		"died":      "die",
		"happy":     "happi",
		"flies":     "fli",
		// steps 2-5
		"relational":      "relat",
		"generalizations": "gener",
		"generously":      "gener",
		"congratulations": "congratul",
		"hopeful":         "hope",
		"goodness":        "good",
		"adoption":        "adopt",
		"replacement":     "replac",
		"effective":       "effect",
		"sensibiliti":     "sensibl",
		"radicalli":       "radic",
		"controll":        "control",
		"roll":            "roll",
		"rate":            "rate",
		"cease":           "ceas",
		"messages":        "messag",
		"mobile":          "mobil",
		"prize":           "prize",
		"now":             "now",
		"free":            "free",
	}

	for in, want := range cases {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMeasure(t *testing.T) {
	cases := map[string]int{
		"tr":       0,
		"ee":       0,
		"tree":     0,
		"y":        0,
		"by":       0,
		"trouble":  1,
		"oats":     1,
		"trees":    1,
		"ivy":      1,
		"troubles": 2,
		"private":  2,
		"oaten":    2,
	}
	for in, want := range cases {
		if got := measure(word(in)); got != want {
			t.Errorf("measure(%q) = %d, want %d", in, got, want)
		}
	}
}
