package artifact

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
)

// Model kinds
const (
	KindMultinomialNB = "multinomial_nb"
	KindBernoulliNB   = "bernoulli_nb"
	KindLinear        = "linear"
)

type modelDocument struct {
	FormatVersion  int         `json:"format_version"`
	Kind           string      `json:"kind"`
	Classes        []int       `json:"classes"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
	Binarize       *float64    `json:"binarize"`
	Coef           [][]float64 `json:"coef"`
	Intercept      []float64   `json:"intercept"`
}

// Model is a pre-fitted classifier. It is immutable after parsing and safe
// for concurrent use.
type Model struct {
	kind     string
	classes  []int
	features int
	digest   string

	classLogPrior  []float64
	featureLogProb [][]float64
	// log(1 - exp(featureLogProb)), bernoulli only
	negLogProb [][]float64
	binarize   *float64

	coef      [][]float64
	intercept []float64
}

// ParseModel decodes and validates a model artifact
func ParseModel(data []byte, digest string) (*Model, error) {
	var doc modelDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}

	if doc.FormatVersion != formatVersion {
		return nil, fmt.Errorf("unsupported model format_version %d", doc.FormatVersion)
	}
	if len(doc.Classes) < 2 {
		return nil, fmt.Errorf("model needs at least two classes, got %d", len(doc.Classes))
	}

	m := &Model{
		kind:    doc.Kind,
		classes: doc.Classes,
		digest:  digest,
	}

	switch doc.Kind {
	case KindMultinomialNB, KindBernoulliNB:
		if err := m.setNaiveBayes(doc); err != nil {
			return nil, err
		}
	case KindLinear:
		if err := m.setLinear(doc); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: model %q", core.ErrUnknownArtifactKind, doc.Kind)
	}

	return m, nil
}

func (m *Model) setNaiveBayes(doc modelDocument) error {
	k := len(doc.Classes)
	if len(doc.ClassLogPrior) != k || len(doc.FeatureLogProb) != k {
		return fmt.Errorf("naive bayes needs %d class priors and feature rows, got %d and %d",
			k, len(doc.ClassLogPrior), len(doc.FeatureLogProb))
	}

	m.features = len(doc.FeatureLogProb[0])
	if m.features == 0 {
		return fmt.Errorf("feature_log_prob rows are empty")
	}
	for i, row := range doc.FeatureLogProb {
		if len(row) != m.features {
			return fmt.Errorf("feature_log_prob row %d has %d features, expected %d", i, len(row), m.features)
		}
	}

	m.classLogPrior = doc.ClassLogPrior
	m.featureLogProb = doc.FeatureLogProb

	if doc.Kind == KindBernoulliNB {
		m.binarize = doc.Binarize
		m.negLogProb = make([][]float64, k)
		for c, row := range doc.FeatureLogProb {
			neg := make([]float64, len(row))
			for j, lp := range row {
				neg[j] = math.Log1p(-math.Exp(lp))
			}
			m.negLogProb[c] = neg
		}
	}
	return nil
}

func (m *Model) setLinear(doc modelDocument) error {
	rows := len(doc.Classes)
	if rows == 2 {
		rows = 1
	}
	if len(doc.Coef) != rows || len(doc.Intercept) != rows {
		return fmt.Errorf("linear model with %d classes needs %d coef rows and intercepts, got %d and %d",
			len(doc.Classes), rows, len(doc.Coef), len(doc.Intercept))
	}

	m.features = len(doc.Coef[0])
	if m.features == 0 {
		return fmt.Errorf("coef rows are empty")
	}
	for i, row := range doc.Coef {
		if len(row) != m.features {
			return fmt.Errorf("coef row %d has %d features, expected %d", i, len(row), m.features)
		}
	}

	m.coef = doc.Coef
	m.intercept = doc.Intercept
	return nil
}

// Predict returns the class code with the highest score for features
func (m *Model) Predict(features []float64) (int, error) {
	if len(features) != m.features {
		return 0, fmt.Errorf("%w: got %d features, model expects %d", core.ErrDimensionMismatch, len(features), m.features)
	}

	switch m.kind {
	case KindLinear:
		return m.predictLinear(features), nil
	case KindBernoulliNB:
		return m.classes[argmax(m.bernoulliScores(features))], nil
	default:
		return m.classes[argmax(m.multinomialScores(features))], nil
	}
}

func (m *Model) multinomialScores(x []float64) []float64 {
	scores := make([]float64, len(m.classes))
	for c := range m.classes {
		s := m.classLogPrior[c]
		for j, xj := range x {
			if xj != 0 {
				s += xj * m.featureLogProb[c][j]
			}
		}
		scores[c] = s
	}
	return scores
}

func (m *Model) bernoulliScores(x []float64) []float64 {
	scores := make([]float64, len(m.classes))
	for c := range m.classes {
		s := m.classLogPrior[c]
		for j, xj := range x {
			if m.binarize != nil {
				if xj > *m.binarize {
					xj = 1
				} else {
					xj = 0
				}
			}
			s += xj*m.featureLogProb[c][j] + (1-xj)*m.negLogProb[c][j]
		}
		scores[c] = s
	}
	return scores
}

func (m *Model) predictLinear(x []float64) int {
	scores := make([]float64, len(m.coef))
	for r, row := range m.coef {
		s := m.intercept[r]
		for j, xj := range x {
			s += xj * row[j]
		}
		scores[r] = s
	}

	if len(scores) == 1 {
		if scores[0] > 0 {
			return m.classes[1]
		}
		return m.classes[0]
	}
	return m.classes[argmax(scores)]
}

// argmax returns the first index of the largest value.
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// Features returns the vector length the model expects
func (m *Model) Features() int {
	return m.features
}

// Digest returns the SHA-256 digest of the artifact
func (m *Model) Digest() string {
	return m.digest
}

// Kind returns the model kind
func (m *Model) Kind() string {
	return m.kind
}
