package kernel

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/integrate/quad"
)

const tol = 1e-3 // linear-interpolation error on the default 1000-point grid

func TestLookupKnownValues(t *testing.T) {
	tab := New(DefaultSamples)

	tests := []struct {
		q, w, dwdq float64
	}{
		{0.0, 1.0, 0.0},
		{0.5, 0.78125, -0.9375},
		{1.0, 0.25, -0.75},
		{1.5, 0.03125, -0.1875},
		{2.0, 0, 0},
		{2.5, 0, 0},
	}

	for _, tt := range tests {
		w, dwdq := tab.Lookup(tt.q)
		if math.Abs(w-tt.w) > tol {
			t.Errorf("Lookup(%v).w = %v, want %v", tt.q, w, tt.w)
		}
		if math.Abs(dwdq-tt.dwdq) > tol {
			t.Errorf("Lookup(%v).dwdq = %v, want %v", tt.q, dwdq, tt.dwdq)
		}
	}
}

func TestShapeSymmetryAndEndpoints(t *testing.T) {
	w0, dw0 := shape(0)
	if w0 != 1 || dw0 != 0 {
		t.Errorf("shape(0) = (%v, %v), want (1, 0)", w0, dw0)
	}
	w1, _ := shape(1)
	if math.Abs(w1-0.25) > 1e-12 {
		t.Errorf("shape(1) = %v, want 0.25", w1)
	}
	w2, dw2 := shape(2)
	if math.Abs(w2) > 1e-12 || math.Abs(dw2) > 1e-12 {
		t.Errorf("shape(2) = (%v, %v), want (0, 0)", w2, dw2)
	}
	// C1 continuity at the q=1 boundary between the two pieces: shape(1)
	// evaluates the inner piece, the next float above 1 the outer one.
	wLeft, dwLeft := shape(1)
	wRight, dwRight := shape(math.Nextafter(1, 2))
	_ = wLeft
	if math.Abs(dwLeft-dwRight) > 1e-12 {
		t.Errorf("derivative discontinuous at q=1: left=%v right=%v", dwLeft, dwRight)
	}
	_ = wRight
}

func TestLookupOutOfRange(t *testing.T) {
	tab := New(100)
	for _, q := range []float64{-1, 2, 3, 10} {
		w, dwdq := tab.Lookup(q)
		if w != 0 || dwdq != 0 {
			t.Errorf("Lookup(%v) = (%v, %v), want zeros", q, w, dwdq)
		}
	}
}

// TestNormalization checks ∫ W dV = 1 for W = W̃/(π h^3) by numerically
// integrating 4π r² W(r) dr over [0, 2h] using gonum's fixed quadrature.
func TestNormalization(t *testing.T) {
	tab := New(DefaultSamples)
	const h = 10.0

	integral := quad.Fixed(func(r float64) float64 {
		q := r / h
		w, _ := tab.Lookup(q)
		wPhys := w / (math.Pi * h * h * h)
		return 4 * math.Pi * r * r * wPhys
	}, 0, 2*h, 1000, quad.Legendre{}, 0)

	if math.Abs(integral-1) > 1e-2 {
		t.Errorf("kernel normalization integral = %v, want ~1", integral)
	}
}
