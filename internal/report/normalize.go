package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// acceptableDifference is the fixed severity threshold for regression
// prediction errors. Differences with magnitude below it render as
// acceptable, everything else as large. Not derived from the data.
const acceptableDifference = 10.0

// imagePrefix marks chart entries that embed an image. Anything else is
// literal text and must never be treated as image data.
const imagePrefix = "data:image"

// MetricCard is one metrics-block cell.
type MetricCard struct {
	Label string
	Value string
	Note  string
}

// FeatureRow is one ranked feature-importance entry.
type FeatureRow struct {
	Feature string
	Weight  float64
	Display string
}

// SampleRow is one actual/predicted pair. Correct is meaningful only for
// classification displays, Difference/Large only for regression ones.
type SampleRow struct {
	Actual     string
	Predicted  string
	Correct    bool
	Difference string
	Large      bool
}

// ChartKind distinguishes embedded images from plain-text chart entries.
type ChartKind int

const (
	ChartImage ChartKind = iota
	ChartText
)

// Chart is one named chart entry.
type Chart struct {
	Name string
	Kind ChartKind
	Data string
}

// Display is the normalized presentation model for a result, identical for
// both variants apart from Kind-specific sample columns.
type Display struct {
	Kind            Kind
	Title           string
	Summary         string
	Metrics         []MetricCard
	Features        []FeatureRow
	Samples         []SampleRow
	Charts          []Chart
	Recommendations []string
}

// Normalize turns a decoded result into its display model. It is pure: the
// result is not modified and repeated calls yield identical displays.
func Normalize(r *Result) (*Display, error) {
	if r == nil {
		return nil, errors.New("nil result")
	}
	d := &Display{
		Kind:  r.Metrics.Kind(),
		Title: fmt.Sprintf("%s Results for %q", HumanizeModel(r.ModelType), r.TargetColumn),
	}

	switch r.Metrics.Kind() {
	case Classification:
		m := r.Metrics.Classification
		if m == nil {
			return nil, errors.New("classification result without classification metrics")
		}
		d.Summary = fmt.Sprintf("%s of samples correctly classified for %s", percent(m.Accuracy), r.TargetColumn)
		d.Metrics = []MetricCard{
			{Label: "Accuracy", Value: percent(m.Accuracy), Note: "Model Accuracy"},
			{Label: "Type", Value: "Classification", Note: "Model Type"},
			{Label: "Classes", Value: fmt.Sprintf("%d", m.ClassCount()), Note: "Number of Classes"},
		}
	case Regression:
		m := r.Metrics.Regression
		if m == nil {
			return nil, errors.New("regression result without regression metrics")
		}
		d.Summary = fmt.Sprintf("R² %s, RMSE %s", percent(m.R2Score), fixed2(m.RMSE))
		d.Metrics = []MetricCard{
			{Label: "R² Score", Value: percent(m.R2Score), Note: "Model Accuracy"},
			{Label: "RMSE", Value: fixed2(m.RMSE), Note: "Root Mean Square Error"},
			{Label: "MSE", Value: fixed2(m.MeanSquaredError), Note: "Mean Square Error"},
		}
	}

	d.Features = rankFeatures(r.FeatureImportance)
	d.Samples = sampleRows(r.SamplePredictions, r.Metrics.Kind())
	d.Charts = chartEntries(r.Charts)
	if len(r.Recommendations) > 0 {
		d.Recommendations = append([]string(nil), r.Recommendations...)
	}
	return d, nil
}

// rankFeatures orders coefficients by descending absolute weight. The sort
// must be stable: equal-magnitude coefficients keep the backend's order so
// the ranking cannot flicker between renders.
func rankFeatures(cs Coefficients) []FeatureRow {
	ranked := append(Coefficients(nil), cs...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return abs(ranked[i].Weight) > abs(ranked[j].Weight)
	})
	rows := make([]FeatureRow, 0, len(ranked))
	for _, c := range ranked {
		rows = append(rows, FeatureRow{
			Feature: c.Feature,
			Weight:  c.Weight,
			Display: signed(c.Weight, 3),
		})
	}
	return rows
}

// sampleRows zips actual and predicted by index. Unequal lengths mean the
// payload is unusable; the block renders as missing rather than indexing out
// of range.
func sampleRows(sp SamplePredictions, kind Kind) []SampleRow {
	if len(sp.Actual) == 0 || len(sp.Actual) != len(sp.Predicted) {
		return nil
	}
	rows := make([]SampleRow, 0, len(sp.Actual))
	for i, actual := range sp.Actual {
		predicted := sp.Predicted[i]
		row := SampleRow{Actual: actual.Raw, Predicted: predicted.Raw}
		if kind == Classification {
			row.Correct = actual.Equal(predicted)
		} else {
			diff := predicted.Num - actual.Num
			row.Actual = fixed2(actual.Num)
			row.Predicted = fixed2(predicted.Num)
			row.Difference = signed(diff, 2)
			row.Large = abs(diff) >= acceptableDifference
		}
		rows = append(rows, row)
	}
	return rows
}

// chartEntries classifies each chart by the image prefix and orders entries
// by name so rendering is deterministic.
func chartEntries(charts map[string]string) []Chart {
	if len(charts) == 0 {
		return nil
	}
	names := make([]string, 0, len(charts))
	for name := range charts {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Chart, 0, len(names))
	for _, name := range names {
		data := charts[name]
		kind := ChartText
		if strings.HasPrefix(data, imagePrefix) {
			kind = ChartImage
		}
		out = append(out, Chart{
			Name: strings.ReplaceAll(name, "_", " "),
			Kind: kind,
			Data: data,
		})
	}
	return out
}

// HumanizeModel renders a model_type value for people: "linear_regression"
// becomes "Linear Regression".
func HumanizeModel(modelType string) string {
	if modelType == "" {
		return "Linear Regression"
	}
	words := strings.Split(strings.ReplaceAll(modelType, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func percent(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }

func fixed2(v float64) string { return fmt.Sprintf("%.2f", v) }

// signed formats with an explicit plus on positive values, matching the
// coefficient and difference columns.
func signed(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, v)
	if v > 0 {
		return "+" + s
	}
	return s
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
