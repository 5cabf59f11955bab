package report

import (
	"encoding/json"
	"errors"
	"testing"
)

const regressionPayload = `{
	"target_column": "Sales",
	"feature_columns": ["TV", "Radio"],
	"model_type": "linear_regression",
	"is_classification": false,
	"metrics": {"r2_score": 0.642, "rmse": 12.345, "mean_squared_error": 152.4},
	"feature_importance": {"TV": 0.045, "Radio": -0.187},
	"sample_predictions": {"actual": [10, 20], "predicted": [12, 15]},
	"charts": {"prediction_plot": "data:image/png;base64,AAAA", "note": "Chart generation failed"},
	"recommendations": []
}`

const classificationPayload = `{
	"target_column": "Month",
	"feature_columns": ["Sales", "Spend"],
	"model_type": "naive_bayes",
	"is_classification": true,
	"metrics": {
		"accuracy": 0.873,
		"classification_report": {
			"Jan": {"precision": 0.9},
			"Feb": {"precision": 0.8},
			"accuracy": 0.873,
			"macro avg": {"precision": 0.85},
			"weighted avg": {"precision": 0.86}
		}
	},
	"feature_importance": {"Sales": 1.2, "Spend": -1.2},
	"sample_predictions": {"actual": ["Jan", "Feb"], "predicted": ["Jan", "Jan"]},
	"charts": {},
	"recommendations": ["Consider trying different classification algorithms like Random Forest or SVM"]
}`

func TestDecodeRegressionResult(t *testing.T) {
	var r Result
	if err := json.Unmarshal([]byte(regressionPayload), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Metrics.Kind() != Regression {
		t.Fatalf("kind = %v, want regression", r.Metrics.Kind())
	}
	m := r.Metrics.Regression
	if m == nil || m.R2Score != 0.642 || m.RMSE != 12.345 || m.MeanSquaredError != 152.4 {
		t.Fatalf("unexpected regression metrics: %+v", m)
	}
	if r.Metrics.Classification != nil {
		t.Fatal("classification branch must be nil on a regression result")
	}
}

func TestDecodeClassificationResult(t *testing.T) {
	var r Result
	if err := json.Unmarshal([]byte(classificationPayload), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Metrics.Kind() != Classification {
		t.Fatalf("kind = %v, want classification", r.Metrics.Kind())
	}
	if r.Metrics.Regression != nil {
		t.Fatal("regression branch must be nil on a classification result")
	}
	if got := r.Metrics.Classification.ClassCount(); got != 2 {
		t.Fatalf("ClassCount = %d, want 2", got)
	}
}

func TestDecodeVariantMismatchFailsLoudly(t *testing.T) {
	payload := `{
		"target_column": "Sales",
		"model_type": "linear_regression",
		"is_classification": true,
		"metrics": {"r2_score": 0.5, "rmse": 1, "mean_squared_error": 1},
		"feature_importance": {},
		"sample_predictions": {"actual": [], "predicted": []},
		"charts": {}
	}`
	var r Result
	err := json.Unmarshal([]byte(payload), &r)
	if !errors.Is(err, ErrVariantMismatch) {
		t.Fatalf("err = %v, want ErrVariantMismatch", err)
	}
}

func TestCoefficientsPreserveKeyOrder(t *testing.T) {
	payload := `{"z_last": 1.0, "a_first": 2.0, "m_mid": 3.0}`
	var cs Coefficients
	if err := json.Unmarshal([]byte(payload), &cs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"z_last", "a_first", "m_mid"}
	for i, w := range want {
		if cs[i].Feature != w {
			t.Fatalf("cs[%d].Feature = %q, want %q (order must match payload)", i, cs[i].Feature, w)
		}
	}
}

func TestClassCountExcludesOnlyPresentReservedKeys(t *testing.T) {
	m := &ClassificationMetrics{Report: map[string]json.RawMessage{
		"yes":       nil,
		"no":        nil,
		"accuracy":  nil,
		"macro avg": nil,
		// "weighted avg" absent on purpose
	}}
	if got := m.ClassCount(); got != 2 {
		t.Fatalf("ClassCount = %d, want 2", got)
	}
}

func TestValueEquality(t *testing.T) {
	var a, b Value
	if err := json.Unmarshal([]byte(`"Jan"`), &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`"Feb"`), &b); err != nil {
		t.Fatal(err)
	}
	if a.Equal(b) {
		t.Fatal("different labels must not be equal")
	}
	var x, y Value
	if err := json.Unmarshal([]byte(`2`), &x); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`2.0`), &y); err != nil {
		t.Fatal(err)
	}
	if !x.Equal(y) {
		t.Fatal("numerically equal values must be equal")
	}
}
