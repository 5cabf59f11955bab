// Package report decodes analysis results returned by the analyzer backend
// and normalizes the two result shapes (regression vs. classification) into
// a single display model for terminal rendering.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Kind discriminates the metrics variant of a result.
type Kind int

const (
	Regression Kind = iota
	Classification
)

func (k Kind) String() string {
	if k == Classification {
		return "classification"
	}
	return "regression"
}

// ErrVariantMismatch is returned when the is_classification flag and the
// metrics fields present in the payload disagree. The two have no defined
// precedence, so decoding fails rather than guessing.
var ErrVariantMismatch = errors.New("result variant mismatch: is_classification flag disagrees with metrics shape")

// RegressionMetrics carries the regression variant's scores.
type RegressionMetrics struct {
	R2Score          float64 `json:"r2_score"`
	RMSE             float64 `json:"rmse"`
	MeanSquaredError float64 `json:"mean_squared_error"`
}

// ClassificationMetrics carries the classification variant's scores. Report
// maps class label (or one of the reserved aggregate keys) to per-label
// statistics; the values are kept raw because the renderer only counts keys.
type ClassificationMetrics struct {
	Accuracy float64                    `json:"accuracy"`
	Report   map[string]json.RawMessage `json:"classification_report"`
}

// reservedReportKeys are sklearn's aggregate rows, never class labels.
var reservedReportKeys = []string{"accuracy", "macro avg", "weighted avg"}

// ClassCount returns the number of distinct classes in the report, excluding
// whichever reserved aggregate keys are actually present.
func (m *ClassificationMetrics) ClassCount() int {
	n := len(m.Report)
	for _, k := range reservedReportKeys {
		if _, ok := m.Report[k]; ok {
			n--
		}
	}
	return n
}

// Metrics is the tagged union over the two variants. Exactly one branch is
// non-nil after a successful decode.
type Metrics struct {
	kind           Kind
	Regression     *RegressionMetrics
	Classification *ClassificationMetrics
}

func (m Metrics) Kind() Kind { return m.kind }

// Coefficient is one feature-importance entry. Entries keep the order the
// backend emitted them in, which is what makes equal-magnitude ties stable.
type Coefficient struct {
	Feature string
	Weight  float64
}

// Coefficients preserves the payload's key order, unlike a map.
type Coefficients []Coefficient

func (c *Coefficients) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("feature_importance: expected object, got %v", tok)
	}
	out := Coefficients{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("feature_importance: non-string key %v", keyTok)
		}
		var w float64
		if err := dec.Decode(&w); err != nil {
			return fmt.Errorf("feature_importance[%s]: %w", key, err)
		}
		out = append(out, Coefficient{Feature: key, Weight: w})
	}
	*c = out
	return nil
}

func (c Coefficients) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(e.Feature)
		buf.Write(k)
		buf.WriteByte(':')
		v, _ := json.Marshal(e.Weight)
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Value is a single actual/predicted entry. Regression results carry numbers,
// classification results may carry class labels.
type Value struct {
	Raw   string
	Num   float64
	IsNum bool
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Value{Raw: strconv.FormatFloat(n, 'g', -1, 64), Num: n, IsNum: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Value{Raw: s}
		return nil
	}
	*v = Value{Raw: string(data)}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsNum {
		return json.Marshal(v.Num)
	}
	return json.Marshal(v.Raw)
}

// Equal is exact equality: numeric when both sides are numbers, textual
// otherwise.
func (v Value) Equal(o Value) bool {
	if v.IsNum && o.IsNum {
		return v.Num == o.Num
	}
	return v.Raw == o.Raw
}

// SamplePredictions are parallel arrays of held-out actuals and the model's
// predictions for them.
type SamplePredictions struct {
	Actual    []Value `json:"actual"`
	Predicted []Value `json:"predicted"`
}

// Result is a decoded analysis result. Read-only on the client.
type Result struct {
	TargetColumn      string            `json:"target_column"`
	FeatureColumns    []string          `json:"feature_columns"`
	ModelType         string            `json:"model_type"`
	IsClassification  bool              `json:"is_classification"`
	Metrics           Metrics           `json:"-"`
	FeatureImportance Coefficients      `json:"feature_importance"`
	SamplePredictions SamplePredictions `json:"sample_predictions"`
	Charts            map[string]string `json:"charts"`
	Recommendations   []string          `json:"recommendations"`
}

func (r *Result) UnmarshalJSON(data []byte) error {
	type plain Result
	aux := struct {
		*plain
		RawMetrics json.RawMessage `json:"metrics"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m, err := decodeMetrics(aux.RawMetrics, r.IsClassification)
	if err != nil {
		return err
	}
	r.Metrics = m
	return nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	aux := struct {
		plain
		RawMetrics any `json:"metrics"`
	}{plain: plain(r)}
	switch r.Metrics.Kind() {
	case Classification:
		aux.RawMetrics = r.Metrics.Classification
	default:
		aux.RawMetrics = r.Metrics.Regression
	}
	return json.Marshal(aux)
}

// decodeMetrics picks the variant from the fields actually present and
// cross-checks it against the flag the backend set.
func decodeMetrics(raw json.RawMessage, isClassification bool) (Metrics, error) {
	if len(raw) == 0 {
		return Metrics{}, errors.New("result has no metrics")
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Metrics{}, fmt.Errorf("decode metrics: %w", err)
	}
	_, hasReport := probe["classification_report"]
	_, hasAccuracy := probe["accuracy"]
	_, hasR2 := probe["r2_score"]

	looksClassified := hasReport || (hasAccuracy && !hasR2)
	if looksClassified != isClassification {
		return Metrics{}, ErrVariantMismatch
	}
	if looksClassified {
		var cm ClassificationMetrics
		if err := json.Unmarshal(raw, &cm); err != nil {
			return Metrics{}, fmt.Errorf("decode classification metrics: %w", err)
		}
		return Metrics{kind: Classification, Classification: &cm}, nil
	}
	if !hasR2 {
		return Metrics{}, errors.New("regression metrics missing r2_score")
	}
	var rm RegressionMetrics
	if err := json.Unmarshal(raw, &rm); err != nil {
		return Metrics{}, fmt.Errorf("decode regression metrics: %w", err)
	}
	return Metrics{kind: Regression, Regression: &rm}, nil
}
