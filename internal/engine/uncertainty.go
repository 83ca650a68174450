package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	// ErrUnknownErrorType 表示集合的 ErrorType 不是 replicas/hessian/symmhessian 之一。
	ErrUnknownErrorType = errors.New("unknown error type")
	// ErrTooFewValues 表示取值个数不足以计算误差。
	ErrTooFewValues = errors.New("too few member values")
)

// ErrorKind 去掉 ErrorType 中 "+as" 之类的修饰后缀。
func ErrorKind(errorType string) string {
	kind, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(errorType)), "+")
	return kind
}

// ComputeUncertainty 按集合误差类型计算不确定度。values[0] 为中心成员，
// setCL 为集合自身的置信度（hessian 集合可能不是一倍标准差），<= 0 时按 CL1Sigma 处理。
func ComputeUncertainty(errorType string, values []float64, cl, setCL float64, alternative bool) (Uncertainty, error) {
	if cl <= 0 || cl >= 100 {
		return Uncertainty{}, fmt.Errorf("confidence level %g outside (0, 100)", cl)
	}
	if setCL <= 0 {
		setCL = CL1Sigma
	}
	switch ErrorKind(errorType) {
	case "replicas":
		return Replicas(values, cl, alternative)
	case "hessian":
		return Hessian(values, clScale(cl, setCL))
	case "symmhessian":
		return SymmHessian(values, clScale(cl, setCL))
	default:
		return Uncertainty{}, fmt.Errorf("%w %q", ErrUnknownErrorType, errorType)
	}
}

// Replicas 使用蒙特卡洛副本计算：中心值为副本均值，误差为样本标准差。
// alternative 为 true 时改用中位数与 cl 对应的置信区间。
func Replicas(values []float64, cl float64, alternative bool) (Uncertainty, error) {
	if len(values) < 3 {
		return Uncertainty{}, fmt.Errorf("replicas need at least 2 replicas: %w", ErrTooFewValues)
	}
	reps := values[1:]
	n := float64(len(reps))

	if alternative {
		sorted := append([]float64(nil), reps...)
		sort.Float64s(sorted)
		central := median(sorted)
		lo := int(math.Round((1 - cl/100) / 2 * n))
		hi := int(math.Round((1+cl/100)/2*n)) - 1
		lo = min(max(lo, 0), len(sorted)-1)
		hi = min(max(hi, lo), len(sorted)-1)
		plus, minus := sorted[hi]-central, central-sorted[lo]
		return Uncertainty{Central: central, Plus: plus, Minus: minus, Symm: (plus + minus) / 2}, nil
	}

	var mean float64
	for _, v := range reps {
		mean += v
	}
	mean /= n

	var sum float64
	for _, v := range reps {
		sum += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(sum/(n-1)) * clScale(cl, CL1Sigma)
	return Uncertainty{Central: mean, Plus: sd, Minus: sd, Symm: sd}, nil
}

// Hessian 使用非对称本征向量对 (values[2k+1], values[2k+2]) 计算误差。
func Hessian(values []float64, scale float64) (Uncertainty, error) {
	if len(values) < 3 || (len(values)-1)%2 != 0 {
		return Uncertainty{}, fmt.Errorf("hessian needs a central value plus eigenvector pairs, got %d values: %w", len(values), ErrTooFewValues)
	}
	central := values[0]
	var plus, minus, symm float64
	for k := 1; k+1 < len(values); k += 2 {
		up, down := values[k]-central, values[k+1]-central
		plus += sq(max(up, down, 0))
		minus += sq(max(-up, -down, 0))
		symm += sq(values[k] - values[k+1])
	}
	return Uncertainty{
		Central: central,
		Plus:    math.Sqrt(plus) * scale,
		Minus:   math.Sqrt(minus) * scale,
		Symm:    0.5 * math.Sqrt(symm) * scale,
	}, nil
}

// SymmHessian 使用对称本征向量计算误差，上下误差相同。
func SymmHessian(values []float64, scale float64) (Uncertainty, error) {
	if len(values) < 2 {
		return Uncertainty{}, fmt.Errorf("symmhessian needs a central value plus eigenvectors: %w", ErrTooFewValues)
	}
	central := values[0]
	var sum float64
	for _, v := range values[1:] {
		sum += sq(v - central)
	}
	delta := math.Sqrt(sum) * scale
	return Uncertainty{Central: central, Plus: delta, Minus: delta, Symm: delta}, nil
}

// clScale 把 from 置信度下的误差换算到 to 置信度。
func clScale(to, from float64) float64 {
	if to == from {
		return 1
	}
	return math.Erfinv(to/100) / math.Erfinv(from/100)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func sq(v float64) float64 { return v * v }
