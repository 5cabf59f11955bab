package dataset

import (
	"reflect"
	"strings"
	"testing"
)

func TestValidName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"sales.csv", true},
		{"a.b.csv", true},
		{"sales.CSV", false}, // extension check is case-sensitive
		{"sales.Csv", false},
		{"sales.tsv", false},
		{"sales.csv.txt", false},
		{"csv", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidName(c.name); got != c.want {
			t.Errorf("ValidName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestPreviewSplitsRowsAndCells(t *testing.T) {
	text := "a,b,c\n1,2,3\n4,5,6"
	got := Preview(text)
	want := [][]string{
		{"a", "b", "c"},
		{"1", "2", "3"},
		{"4", "5", "6"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Preview = %v, want %v", got, want)
	}
}

func TestPreviewCapsAtHeaderPlusFiveRows(t *testing.T) {
	lines := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		lines = append(lines, "x,y")
	}
	got := Preview(strings.Join(lines, "\n"))
	if len(got) != 6 {
		t.Fatalf("len(Preview) = %d, want 6", len(got))
	}
}

func TestPreviewEmptyText(t *testing.T) {
	if got := Preview(""); got != nil {
		t.Fatalf("Preview(\"\") = %v, want nil", got)
	}
}

func TestPreviewIsBestEffortOnly(t *testing.T) {
	// Quoted fields are split naively; the preview never claims correctness.
	got := Preview(`name,note` + "\n" + `a,"x,y"`)
	if len(got[1]) != 3 {
		t.Fatalf("expected naive comma split into 3 cells, got %v", got[1])
	}
}
