package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{0.3, 0.5, 0.8}, []float32{0.3, 0.5, 0.8}, 1.0},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1.0},
		{"three-four-five", []float32{1, 0}, []float32{3, 4}, 0.6},
		{"nine-tenths", []float32{1, 0, 0, 0}, []float32{9, 3, 3, 1}, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_zeroNorm(t *testing.T) {
	got, err := CosineSimilarity([]float32{0, 0}, []float32{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(got) {
		t.Fatalf("expected NaN, got %v", got)
	}
	if got >= 0 {
		t.Error("NaN must not pass a >= threshold")
	}
}

func TestCosineSimilarity_dimensionMismatch(t *testing.T) {
	if _, err := CosineSimilarity([]float32{1}, []float32{1, 2}); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
}

func TestScorer(t *testing.T) {
	s := NewScorer([]float32{1, 0})
	got, err := s.Score([]float32{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if got != 0.6 {
		t.Errorf("Score = %v, want exactly 0.6", got)
	}
	if _, err := s.Score([]float32{1, 2, 3}); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestEncodeDecode(t *testing.T) {
	in := []float32{1.5, -2.25, 0, float32(math.Pi)}
	out, err := Decode(Encode(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("len: got %d", len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("index %d: got %v want %v", i, out[i], in[i])
		}
	}
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}
