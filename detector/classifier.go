package detector

import (
	"encoding/json"
	"fmt"
	"os"
)

// Classifier is a pre-trained, stateless predictor over a FeatureVector.
type Classifier interface {
	Predict(v FeatureVector) (Indicator, error)
}

// LinearModel scores w·x + b and predicts Benign when the score is not
// negative. Its artifact is JSON: {"weights": [30 numbers], "bias": n}.
type LinearModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func (m *LinearModel) Predict(v FeatureVector) (Indicator, error) {
	if len(m.Weights) != FeatureCount {
		return 0, fmt.Errorf("model has %d weights, want %d", len(m.Weights), FeatureCount)
	}
	score := m.Bias
	for i, x := range v {
		score += m.Weights[i] * float64(x)
	}
	if score >= 0 {
		return Benign, nil
	}
	return Risky, nil
}

// LoadClassifier reads a LinearModel artifact. Callers treat any error as
// "no classifier" and carry on without it.
func LoadClassifier(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if len(m.Weights) != FeatureCount {
		return nil, fmt.Errorf("model %s has %d weights, want %d", path, len(m.Weights), FeatureCount)
	}
	return &m, nil
}
