package noop

import (
	"context"
	"testing"

	"github.com/partons-hub/partons/internal/engine"
)

func TestNoopRegistered(t *testing.T) {
	backend, ok := engine.Resolve("NOOP")
	if !ok {
		t.Fatalf("noop backend should register itself")
	}
	set, err := backend.Open(context.Background(), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := set.Entry("Particle"); ok {
		t.Fatalf("noop set has no entries")
	}

	pdfs, err := set.Pdfs()
	if err != nil || len(pdfs) != 1 {
		t.Fatalf("expected a single pdf, got %d (%v)", len(pdfs), err)
	}
	pdf := pdfs[0]
	if pdf.XfxQ2(21, 0.25, 100) != 0.25 || pdf.AlphasQ2(100) != 1 {
		t.Fatalf("unexpected noop values")
	}
	if pdf.XMin() != 0 || pdf.XMax() != 1 || pdf.ForcePositive() != 1 {
		t.Fatalf("unexpected noop bounds")
	}

	u, err := set.Uncertainty([]float64{1, 2, 3}, engine.CL1Sigma, false)
	if err != nil || u != (engine.Uncertainty{}) {
		t.Fatalf("expected zero uncertainty, got %+v (%v)", u, err)
	}
}

func TestOpenDefaultsToNoop(t *testing.T) {
	set, err := engine.Open(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("open default: %v", err)
	}
	if _, ok := set.(*PdfSet); !ok {
		t.Fatalf("expected noop set, got %T", set)
	}
}
