package model

import (
	"errors"
	"fmt"
)

// ErrMemberTruncated 表示编码后的 member 短于其头部声明的长度。
var ErrMemberTruncated = errors.New("encoded member truncated")

// PidNotFoundError 表示 Block 或 Member 中不存在该粒子 id。
type PidNotFoundError struct {
	Pid int32
}

func (e *PidNotFoundError) Error() string {
	return fmt.Sprintf("PID not found: %d", e.Pid)
}

// ShapeError 表示数值长度与网格维度不一致。
type ShapeError struct {
	Want []int
	Got  int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("values shape mismatch: want %v (%d values), got %d", e.Want, product(e.Want), e.Got)
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// OutOfRangeError 表示查询点位于网格之外。
type OutOfRangeError struct {
	Axis     string
	Value    float64
	Min, Max float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s=%g outside grid [%g, %g]", e.Axis, e.Value, e.Min, e.Max)
}

// FlavorRangeError 表示活跃味数超出 member 的子网格范围。
type FlavorRangeError struct {
	Flavors  int
	Subgrids int
}

func (e *FlavorRangeError) Error() string {
	return fmt.Sprintf("flavor count %d outside [%d, %d)", e.Flavors, MinFlavors, MinFlavors+e.Subgrids)
}
