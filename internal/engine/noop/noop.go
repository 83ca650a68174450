// Package noop 提供不依赖任何数据的兜底后端：xfx 返回 x 本身，误差恒为零。
package noop

import (
	"context"

	"github.com/partons-hub/partons/internal/engine"
)

const key = "noop"

func init() {
	engine.MustRegister(engine.Backend{
		Key:         key,
		Description: "Fallback backend returning fixed values",
		Open: func(context.Context, engine.Loader) (engine.PdfSet, error) {
			return &PdfSet{}, nil
		},
	})
}

// Pdf 忽略输入，返回固定值。
type Pdf struct{}

var _ engine.Pdf = (*Pdf)(nil)

func (*Pdf) AlphasQ2(float64) float64 { return 1 }

func (*Pdf) XfxQ2(_ int32, x, _ float64) float64 { return x }

func (*Pdf) XMin() float64 { return 0 }

func (*Pdf) XMax() float64 { return 1 }

func (*Pdf) ForcePositive() int { return 1 }

func (*Pdf) SetForcePositive(int) {}

func (*Pdf) Set() engine.PdfSet { return &PdfSet{} }

// PdfSet 只有一个成员，且没有元数据。
type PdfSet struct{}

var _ engine.PdfSet = (*PdfSet)(nil)

func (*PdfSet) Entry(string) (string, bool) { return "", false }

func (*PdfSet) ErrorType() string { return "" }

func (*PdfSet) Pdfs() ([]engine.Pdf, error) { return []engine.Pdf{&Pdf{}}, nil }

func (*PdfSet) Uncertainty([]float64, float64, bool) (engine.Uncertainty, error) {
	return engine.Uncertainty{}, nil
}
