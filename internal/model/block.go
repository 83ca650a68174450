// Package model 定义部分子分布集合的规范内存表示：由插值 Block 组成的 Member，
// 以及集合元数据 Info。
//
// Block 以 (pid, x, mu2) 顺序的扁平切片存储数值，pid 下标 p、x 下标 i、
// mu2 下标 j 对应的位置为
//
//	p*len(XGrid)*len(Mu2Grid) + i*len(Mu2Grid) + j
package model

import (
	"fmt"
	"math"
	"sort"
)

// Block 是 Member 中一个 (pid, subgrid) 切片的插值表。
type Block struct {
	Pids    []int32   `cbor:"pids"`
	XGrid   []float64 `cbor:"xgrid"`
	Mu2Grid []float64 `cbor:"mu2grid"`
	Values  []float64 `cbor:"values"`

	pidIndex map[int32]int
}

// NewBlock 校验网格与数值形状，并建立 pid 查找表。
func NewBlock(pids []int32, xgrid, mu2grid, values []float64) (*Block, error) {
	b := &Block{Pids: pids, XGrid: xgrid, Mu2Grid: mu2grid, Values: values}
	if err := b.init(); err != nil {
		return nil, err
	}
	return b, nil
}

// Empty 判断 block 是否不含数据。旧版网格未提供的 (pid, subgrid) 位置以空 block 填充。
func (b *Block) Empty() bool {
	return len(b.Pids) == 0 && len(b.Values) == 0
}

func (b *Block) init() error {
	if b.Empty() {
		b.pidIndex = map[int32]int{}
		return nil
	}
	if len(b.Pids) == 0 {
		return fmt.Errorf("block has values but no pids")
	}
	if err := strictlyIncreasing("xgrid", b.XGrid); err != nil {
		return err
	}
	if err := strictlyIncreasing("mu2grid", b.Mu2Grid); err != nil {
		return err
	}
	want := len(b.Pids) * len(b.XGrid) * len(b.Mu2Grid)
	if len(b.Values) != want {
		return &ShapeError{
			Want: []int{len(b.Pids), len(b.XGrid), len(b.Mu2Grid)},
			Got:  len(b.Values),
		}
	}

	index := make(map[int32]int, len(b.Pids))
	for i, pid := range b.Pids {
		if _, dup := index[pid]; dup {
			return fmt.Errorf("duplicate pid %d in block", pid)
		}
		index[pid] = i
	}
	b.pidIndex = index
	return nil
}

func strictlyIncreasing(name string, grid []float64) error {
	if len(grid) == 0 {
		return fmt.Errorf("%s is empty", name)
	}
	for i := 1; i < len(grid); i++ {
		if !(grid[i] > grid[i-1]) {
			return fmt.Errorf("%s not strictly increasing at position %d (%g after %g)", name, i, grid[i], grid[i-1])
		}
	}
	return nil
}

// Shape 返回 (pids, x, mu2) 维度。
func (b *Block) Shape() (int, int, int) {
	return len(b.Pids), len(b.XGrid), len(b.Mu2Grid)
}

// PidIndex 返回粒子 id 在第一维上的位置。
func (b *Block) PidIndex(pid int32) (int, error) {
	if idx, ok := b.pidIndex[pid]; ok {
		return idx, nil
	}
	return 0, &PidNotFoundError{Pid: pid}
}

// At 返回 (p, i, j) 处的值，除切片访问外不做越界检查。
func (b *Block) At(p, i, j int) float64 {
	nx, nq := len(b.XGrid), len(b.Mu2Grid)
	return b.Values[p*nx*nq+i*nq+j]
}

// Slice 返回单个 pid 的 (x, mu2) 二维表，与 block 共享存储。
func (b *Block) Slice(p int) []float64 {
	size := len(b.XGrid) * len(b.Mu2Grid)
	return b.Values[p*size : (p+1)*size]
}

// Interp 在 (log x, log mu2) 上做双线性插值，仅满足查找契约，不替代高阶插值。
func (b *Block) Interp(pid int32, x, mu2 float64) (float64, error) {
	p, err := b.PidIndex(pid)
	if err != nil {
		return 0, err
	}
	i, err := locate("x", b.XGrid, x)
	if err != nil {
		return 0, err
	}
	j, err := locate("mu2", b.Mu2Grid, mu2)
	if err != nil {
		return 0, err
	}

	i1, j1 := next(b.XGrid, i), next(b.Mu2Grid, j)
	tx := weight(b.XGrid[i], b.XGrid[i1], x)
	tq := weight(b.Mu2Grid[j], b.Mu2Grid[j1], mu2)

	v00 := b.At(p, i, j)
	v01 := b.At(p, i, j1)
	v10 := b.At(p, i1, j)
	v11 := b.At(p, i1, j1)

	low := v00*(1-tq) + v01*tq
	high := v10*(1-tq) + v11*tq
	return low*(1-tx) + high*tx, nil
}

// locate 返回包含 v 的区间的下端节点下标。
func locate(axis string, grid []float64, v float64) (int, error) {
	n := len(grid)
	if n == 0 || v < grid[0] || v > grid[n-1] || math.IsNaN(v) {
		lo, hi := math.NaN(), math.NaN()
		if n > 0 {
			lo, hi = grid[0], grid[n-1]
		}
		return 0, &OutOfRangeError{Axis: axis, Value: v, Min: lo, Max: hi}
	}
	if n == 1 {
		return 0, nil
	}
	i := sort.SearchFloat64s(grid, v)
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	return i, nil
}

func next(grid []float64, i int) int {
	if i+1 < len(grid) {
		return i + 1
	}
	return i
}

func weight(lo, hi, v float64) float64 {
	if hi == lo {
		return 0
	}
	if lo > 0 && v > 0 {
		return (math.Log(v) - math.Log(lo)) / (math.Log(hi) - math.Log(lo))
	}
	return (v - lo) / (hi - lo)
}
