package artifact

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
)

const formatVersion = 1

// Vectorizer kinds
const (
	KindTfidf = "tfidf"
	KindCount = "count"
)

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

type vectorizerDocument struct {
	FormatVersion int            `json:"format_version"`
	Kind          string         `json:"kind"`
	Vocabulary    map[string]int `json:"vocabulary"`
	IDF           []float64      `json:"idf"`
	NgramRange    []int          `json:"ngram_range"`
	Binary        bool           `json:"binary"`
	SublinearTF   bool           `json:"sublinear_tf"`
	Norm          *string        `json:"norm"`
	Lowercase     *bool          `json:"lowercase"`
}

// Vectorizer is a pre-fitted bag-of-words vectorizer. It is immutable after
// parsing and safe for concurrent use.
type Vectorizer struct {
	kind        string
	vocabulary  map[string]int
	idf         []float64
	minN, maxN  int
	binary      bool
	sublinearTF bool
	norm        string
	lowercase   bool
	digest      string
}

// ParseVectorizer decodes and validates a vectorizer artifact
func ParseVectorizer(data []byte, digest string) (*Vectorizer, error) {
	var doc vectorizerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode vectorizer: %w", err)
	}

	if doc.FormatVersion != formatVersion {
		return nil, fmt.Errorf("unsupported vectorizer format_version %d", doc.FormatVersion)
	}
	if doc.Kind != KindTfidf && doc.Kind != KindCount {
		return nil, fmt.Errorf("%w: vectorizer %q", core.ErrUnknownArtifactKind, doc.Kind)
	}
	if len(doc.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer vocabulary is empty")
	}

	seen := make([]bool, len(doc.Vocabulary))
	for term, idx := range doc.Vocabulary {
		if idx < 0 || idx >= len(seen) || seen[idx] {
			return nil, fmt.Errorf("vocabulary index %d for %q is out of range or duplicated", idx, term)
		}
		seen[idx] = true
	}

	v := &Vectorizer{
		kind:        doc.Kind,
		vocabulary:  doc.Vocabulary,
		minN:        1,
		maxN:        1,
		binary:      doc.Binary,
		sublinearTF: doc.SublinearTF,
		lowercase:   doc.Lowercase == nil || *doc.Lowercase,
		digest:      digest,
	}

	if len(doc.NgramRange) > 0 {
		if len(doc.NgramRange) != 2 || doc.NgramRange[0] < 1 || doc.NgramRange[0] > doc.NgramRange[1] {
			return nil, fmt.Errorf("invalid ngram_range %v", doc.NgramRange)
		}
		v.minN, v.maxN = doc.NgramRange[0], doc.NgramRange[1]
	}

	if doc.Kind == KindTfidf {
		if len(doc.IDF) != len(doc.Vocabulary) {
			return nil, fmt.Errorf("idf has %d entries, vocabulary has %d", len(doc.IDF), len(doc.Vocabulary))
		}
		v.idf = doc.IDF
		v.norm = "l2"
		if doc.Norm != nil {
			v.norm = *doc.Norm
		}
		switch v.norm {
		case "l1", "l2", "":
		default:
			return nil, fmt.Errorf("unsupported norm %q", v.norm)
		}
	}

	return v, nil
}

// Vectorize maps a normalized string to its feature vector
func (v *Vectorizer) Vectorize(text string) ([]float64, error) {
	if v.lowercase {
		text = strings.ToLower(text)
	}

	vec := make([]float64, len(v.vocabulary))
	for _, term := range v.terms(tokenPattern.FindAllString(text, -1)) {
		if idx, ok := v.vocabulary[term]; ok {
			vec[idx]++
		}
	}

	if v.binary {
		for i, x := range vec {
			if x != 0 {
				vec[i] = 1
			}
		}
	}

	if v.kind == KindCount {
		return vec, nil
	}

	for i, x := range vec {
		if x == 0 {
			continue
		}
		if v.sublinearTF {
			x = 1 + math.Log(x)
		}
		vec[i] = x * v.idf[i]
	}

	normalize(vec, v.norm)
	return vec, nil
}

// terms expands tokens into the configured n-grams.
func (v *Vectorizer) terms(tokens []string) []string {
	if v.maxN == 1 {
		return tokens
	}

	var out []string
	for n := v.minN; n <= v.maxN && n <= len(tokens); n++ {
		if n == 1 {
			out = append(out, tokens...)
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func normalize(vec []float64, norm string) {
	var total float64
	switch norm {
	case "l2":
		for _, x := range vec {
			total += x * x
		}
		total = math.Sqrt(total)
	case "l1":
		for _, x := range vec {
			total += math.Abs(x)
		}
	default:
		return
	}

	if total == 0 {
		return
	}
	for i := range vec {
		vec[i] /= total
	}
}

// Dimension returns the vocabulary size
func (v *Vectorizer) Dimension() int {
	return len(v.vocabulary)
}

// Digest returns the SHA-256 digest of the artifact
func (v *Vectorizer) Digest() string {
	return v.digest
}

// Kind returns the vectorizer kind
func (v *Vectorizer) Kind() string {
	return v.kind
}
