package api

import "github.com/datasightlabs/datasight-cli/internal/report"

// Model types the backend knows how to fit.
const (
	ModelLinearRegression   = "linear_regression"
	ModelLogisticRegression = "logistic_regression"
	ModelNaiveBayes         = "naive_bayes"
)

// ModelTypes lists the accepted model_type values in menu order.
func ModelTypes() []string {
	return []string{ModelLinearRegression, ModelLogisticRegression, ModelNaiveBayes}
}

// ValidModelType reports whether s is one of the accepted model types.
func ValidModelType(s string) bool {
	for _, m := range ModelTypes() {
		if s == m {
			return true
		}
	}
	return false
}

// Dataset is the descriptor returned by a successful upload. Immutable once
// received; the filename identifies it for the following predict call.
type Dataset struct {
	Filename    string         `json:"filename"`
	Columns     []string       `json:"columns"`
	RowCount    int            `json:"n_rows"`
	ColumnCount int            `json:"n_columns"`
	NullCounts  map[string]int `json:"null_counts"`
	Message     string         `json:"message"`
	DBMessage   string         `json:"db_message"`
	IsNewFile   bool           `json:"is_new_file"`
}

// HasColumn reports whether name is one of the dataset's columns.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// PredictRequest asks the backend to fit a model over an uploaded dataset.
type PredictRequest struct {
	Filename     string `json:"filename"`
	TargetColumn string `json:"target_column"`
	ModelType    string `json:"model_type"`
}

// FileData is the stored per-file summary.
type FileData struct {
	RowCount    int            `json:"n_rows"`
	ColumnCount int            `json:"n_columns"`
	Columns     []string       `json:"columns"`
	NullCounts  map[string]int `json:"null_counts"`
}

// StoredFile is one entry of the user's file collection.
type StoredFile struct {
	ID         string   `json:"_id"`
	Filename   string   `json:"filename"`
	UploadedAt string   `json:"uploaded_at"`
	FileData   FileData `json:"file_data"`
}

// StoredResult is one entry of the user's result collection; the list and
// the by-id detail share this shape and identity.
type StoredResult struct {
	ID        string        `json:"_id"`
	Filename  string        `json:"filename"`
	Timestamp string        `json:"timestamp"`
	Result    report.Result `json:"result"`
}
