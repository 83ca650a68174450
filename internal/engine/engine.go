package engine

import (
	"context"

	"github.com/partons-hub/partons/internal/model"
)

// CL1Sigma 是一倍标准差对应的置信度（百分比）。
const CL1Sigma = 68.26894921370858

// Uncertainty 描述一组成员取值的中心值与上下误差。
type Uncertainty struct {
	Central float64
	Plus    float64
	Minus   float64
	Symm    float64
}

// Pdf 是单个成员的求值能力。
type Pdf interface {
	AlphasQ2(q2 float64) float64
	XfxQ2(pid int32, x, q2 float64) float64
	XMin() float64
	XMax() float64
	ForcePositive() int
	SetForcePositive(mode int)
	Set() PdfSet
}

// PdfSet 是整个集合的能力：元数据查询、成员枚举与误差计算。
type PdfSet interface {
	Entry(key string) (string, bool)
	ErrorType() string
	Pdfs() ([]Pdf, error)
	Uncertainty(values []float64, cl float64, alternative bool) (Uncertainty, error)
}

// Loader 提供后端需要的集合数据，*source.Set 满足该接口。
type Loader interface {
	Name() string
	Info(ctx context.Context) (*model.Info, error)
	Members(ctx context.Context) ([]*model.Member, error)
}

// Backend 记录一个后端的静态信息与构造函数。
type Backend struct {
	Key         string
	Description string
	Open        func(ctx context.Context, set Loader) (PdfSet, error)
}
