package model

import (
	"fmt"
)

const (
	// MinFlavors 是第一个子网格的活跃味数。
	MinFlavors = 3
	// MaxSubgrids 是每个 member 的子网格数量上限。
	MaxSubgrids = 4
)

// BlockIndex 将 (pid 位置, 活跃味数) 映射为对应 Block 在 Member.Blocks 中的位置。
func BlockIndex(pidIndex, flavors, subgrids int) (int, error) {
	if subgrids < 1 || subgrids > MaxSubgrids {
		return 0, fmt.Errorf("subgrid count %d outside [1, %d]", subgrids, MaxSubgrids)
	}
	if flavors < MinFlavors || flavors >= MinFlavors+subgrids {
		return 0, &FlavorRangeError{Flavors: flavors, Subgrids: subgrids}
	}
	if pidIndex < 0 {
		return 0, fmt.Errorf("negative pid index %d", pidIndex)
	}
	return pidIndex*subgrids + (flavors - MinFlavors), nil
}

// Member 是集合中的一个 replica 或本征向量，每个 (pid, subgrid) 对应一个 Block。
type Member struct {
	Metadata map[string]string `cbor:"metadata"`
	Subgrids int               `cbor:"subgrids"`
	Pids     []int32           `cbor:"pids"`
	Blocks   []Block           `cbor:"blocks"`

	pidIndex map[int32]int
}

// NewMember 检查 blocks 覆盖所有 (pid, subgrid) 位置，并建立查找表。
func NewMember(metadata map[string]string, subgrids int, pids []int32, blocks []Block) (*Member, error) {
	m := &Member{Metadata: metadata, Subgrids: subgrids, Pids: pids, Blocks: blocks}
	if err := m.init(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Member) init() error {
	if m.Metadata == nil {
		m.Metadata = map[string]string{}
	}
	if len(m.Pids) == 0 && len(m.Blocks) == 0 {
		m.pidIndex = map[int32]int{}
		return nil
	}
	if m.Subgrids < 1 || m.Subgrids > MaxSubgrids {
		return fmt.Errorf("subgrid count %d outside [1, %d]", m.Subgrids, MaxSubgrids)
	}
	if want := len(m.Pids) * m.Subgrids; len(m.Blocks) != want {
		return fmt.Errorf("member has %d blocks, want %d (%d pids x %d subgrids)", len(m.Blocks), want, len(m.Pids), m.Subgrids)
	}

	m.pidIndex = make(map[int32]int, len(m.Pids))
	for i, pid := range m.Pids {
		if _, dup := m.pidIndex[pid]; dup {
			return fmt.Errorf("duplicate pid %d in member", pid)
		}
		m.pidIndex[pid] = i
	}
	for i := range m.Blocks {
		if err := m.Blocks[i].init(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
	}
	return nil
}

// PidIndex 返回 pid 在 member pid 列表中的位置。
func (m *Member) PidIndex(pid int32) (int, error) {
	if idx, ok := m.pidIndex[pid]; ok {
		return idx, nil
	}
	return 0, &PidNotFoundError{Pid: pid}
}

// Block 返回给定活跃味数下包含 pid 的 block。
func (m *Member) Block(pid int32, flavors int) (*Block, error) {
	p, err := m.PidIndex(pid)
	if err != nil {
		return nil, err
	}
	idx, err := BlockIndex(p, flavors, m.Subgrids)
	if err != nil {
		return nil, err
	}
	b := &m.Blocks[idx]
	if b.Empty() {
		return nil, &PidNotFoundError{Pid: pid}
	}
	return b, nil
}

// Evaluate 对每个下标 k 以 (pids[k], xs[k], mu2s[k], flavors[k]) 执行一次查找。
func (m *Member) Evaluate(pids []int32, xs, mu2s []float64, flavors []int) ([]float64, error) {
	n := len(pids)
	if len(xs) != n || len(mu2s) != n || len(flavors) != n {
		return nil, &ShapeError{Want: []int{n}, Got: minLen(len(xs), len(mu2s), len(flavors))}
	}
	out := make([]float64, n)
	for k := range pids {
		b, err := m.Block(pids[k], flavors[k])
		if err != nil {
			return nil, err
		}
		v, err := b.Interp(pids[k], xs[k], mu2s[k])
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func minLen(ns ...int) int {
	least := ns[0]
	for _, n := range ns[1:] {
		if n < least {
			least = n
		}
	}
	return least
}

// Range 返回 member 非空 block 覆盖的最大 (x, mu2) 范围。
func (m *Member) Range() (xmin, xmax, mu2min, mu2max float64, ok bool) {
	for i := range m.Blocks {
		b := &m.Blocks[i]
		if b.Empty() {
			continue
		}
		bxmin, bxmax := b.XGrid[0], b.XGrid[len(b.XGrid)-1]
		bqmin, bqmax := b.Mu2Grid[0], b.Mu2Grid[len(b.Mu2Grid)-1]
		if !ok {
			xmin, xmax, mu2min, mu2max, ok = bxmin, bxmax, bqmin, bqmax, true
			continue
		}
		xmin, xmax = min(xmin, bxmin), max(xmax, bxmax)
		mu2min, mu2max = min(mu2min, bqmin), max(mu2max, bqmax)
	}
	return xmin, xmax, mu2min, mu2max, ok
}

// FlavorsFor 扫描 pid 的各 block，返回 mu2 范围包含 mu2 的第一个子网格的活跃味数。
func (m *Member) FlavorsFor(pid int32, mu2 float64) (int, error) {
	p, err := m.PidIndex(pid)
	if err != nil {
		return 0, err
	}
	last := 0
	for s := 0; s < m.Subgrids; s++ {
		b := &m.Blocks[p*m.Subgrids+s]
		if b.Empty() {
			continue
		}
		last = MinFlavors + s
		if mu2 <= b.Mu2Grid[len(b.Mu2Grid)-1] {
			return last, nil
		}
	}
	if last == 0 {
		return 0, &PidNotFoundError{Pid: pid}
	}
	return last, nil
}
