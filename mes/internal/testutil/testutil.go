// Package testutil provides shared assertion and fixture helpers for the mes
// test packages.
package testutil

import (
	"math"
	"path/filepath"
	"runtime"
	"testing"
)

// TestdataPath resolves a file under the repository's testdata directory.
// The path is resolved relative to this source file: mes/internal/testutil/ → testdata/.
func TestdataPath(t *testing.T, parts ...string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	root := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata")
	return filepath.Join(append([]string{root}, parts...)...)
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// Set writes one value per handle into an assignment indexed by column.
func Set[ID ~int](values []float64, ids []ID, vals ...float64) {
	if len(vals) == 1 {
		for _, id := range ids {
			values[id] = vals[0]
		}
		return
	}
	for i, id := range ids {
		values[id] = vals[i]
	}
}
