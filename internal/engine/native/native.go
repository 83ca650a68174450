// Package native 基于内存中的 Member 模型求值：xfx 经由 Member.FlavorsFor 与 Block.Interp 查找，
// alpha_s 由集合元数据中的 AlphaS_Qs/AlphaS_Vals 表插值得到。
package native

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/partons-hub/partons/internal/engine"
	"github.com/partons-hub/partons/internal/model"
)

const key = "native"

const gluon int32 = 21

// 强制非负模式
const (
	ForceNone     = 0
	ForceZero     = 1
	ForceMinimum  = 2
	positiveFloor = 1e-10
)

func init() {
	engine.MustRegister(engine.Backend{
		Key:         key,
		Description: "Evaluates cached members with the built-in grid model",
		Open:        Open,
	})
}

// Open 加载集合的 info 与全部成员。
func Open(ctx context.Context, set engine.Loader) (engine.PdfSet, error) {
	if set == nil {
		return nil, fmt.Errorf("native backend needs a set")
	}
	info, err := set.Info(ctx)
	if err != nil {
		return nil, err
	}
	members, err := set.Members(ctx)
	if err != nil {
		return nil, err
	}
	pdfSet, err := NewPdfSet(set.Name(), info, members)
	if err != nil {
		return nil, err
	}
	return pdfSet, nil
}

// PdfSet 封装单个集合的元数据与已解码成员。
type PdfSet struct {
	name    string
	info    *model.Info
	members []*model.Member
}

var _ engine.PdfSet = (*PdfSet)(nil)

func NewPdfSet(name string, info *model.Info, members []*model.Member) (*PdfSet, error) {
	if info == nil {
		return nil, fmt.Errorf("set %s: missing info", name)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("set %s: no members", name)
	}
	return &PdfSet{name: name, info: info, members: members}, nil
}

func (s *PdfSet) Name() string { return s.name }

// Entry 格式化 key 对应的元数据值。
func (s *PdfSet) Entry(key string) (string, bool) {
	v, ok := s.info.Lookup(key)
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}

func (s *PdfSet) ErrorType() string {
	if s.info.ErrorType == nil {
		return ""
	}
	return *s.info.ErrorType
}

func (s *PdfSet) Pdfs() ([]engine.Pdf, error) {
	out := make([]engine.Pdf, len(s.members))
	for i := range s.members {
		pdf, err := s.Pdf(i)
		if err != nil {
			return nil, err
		}
		out[i] = pdf
	}
	return out, nil
}

// Pdf 返回第 n 个成员。
func (s *PdfSet) Pdf(n int) (*Pdf, error) {
	if n < 0 || n >= len(s.members) {
		return nil, fmt.Errorf("set %s: member %d out of range [0, %d)", s.name, n, len(s.members))
	}
	return &Pdf{set: s, member: s.members[n]}, nil
}

// Uncertainty 按集合的 ErrorType 分派。ErrorConfLevel 存在时，表示 Hessian 本征向量对应的置信度。
func (s *PdfSet) Uncertainty(values []float64, cl float64, alternative bool) (engine.Uncertainty, error) {
	setCL := 0.0
	if v, ok := s.info.Lookup("ErrorConfLevel"); ok {
		if f, ok := toFloat(v); ok {
			setCL = f
		}
	}
	return engine.ComputeUncertainty(s.ErrorType(), values, cl, setCL, alternative)
}

// Pdf 对单个成员求值。
type Pdf struct {
	set    *PdfSet
	member *model.Member

	mu            sync.Mutex
	forcePositive int

	alphasOnce sync.Once
	alphasQ2   []float64
	alphasVals []float64
}

var _ engine.Pdf = (*Pdf)(nil)

// XfxQ2 返回 pid 的 x*f(x, Q2)；pid 不存在或点位于网格外时返回 0。pid 0 视为胶子。
func (p *Pdf) XfxQ2(pid int32, x, q2 float64) float64 {
	if pid == 0 {
		pid = gluon
	}
	flavors, err := p.member.FlavorsFor(pid, q2)
	if err != nil {
		return 0
	}
	block, err := p.member.Block(pid, flavors)
	if err != nil {
		return 0
	}
	v, err := block.Interp(pid, x, q2)
	if err != nil {
		return 0
	}

	switch p.ForcePositive() {
	case ForceZero:
		v = math.Max(v, 0)
	case ForceMinimum:
		v = math.Max(v, positiveFloor)
	}
	return v
}

// AlphasQ2 在 log Q2 上线性插值 alpha_s，表外取边界值；没有 alpha_s 表的集合返回 0。
func (p *Pdf) AlphasQ2(q2 float64) float64 {
	p.alphasOnce.Do(p.loadAlphas)
	qs, vals := p.alphasQ2, p.alphasVals
	if len(qs) == 0 {
		return 0
	}
	if q2 <= qs[0] {
		return vals[0]
	}
	last := len(qs) - 1
	if q2 >= qs[last] {
		return vals[last]
	}
	i := sort.SearchFloat64s(qs, q2)
	if qs[i] == q2 {
		return vals[i]
	}
	lo, hi := i-1, i
	t := (math.Log(q2) - math.Log(qs[lo])) / (math.Log(qs[hi]) - math.Log(qs[lo]))
	return vals[lo] + t*(vals[hi]-vals[lo])
}

func (p *Pdf) loadAlphas() {
	qs, ok1 := p.floats("AlphaS_Qs")
	vals, ok2 := p.floats("AlphaS_Vals")
	if !ok1 || !ok2 || len(qs) != len(vals) || len(qs) == 0 {
		return
	}
	q2 := make([]float64, len(qs))
	for i, q := range qs {
		q2[i] = q * q
	}
	if !sort.Float64sAreSorted(q2) {
		return
	}
	p.alphasQ2, p.alphasVals = q2, vals
}

func (p *Pdf) floats(key string) ([]float64, bool) {
	raw, ok := p.set.info.Lookup(key)
	if !ok {
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(list))
	for i, item := range list {
		f, ok := toFloat(item)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func (p *Pdf) XMin() float64 {
	if v, ok := p.bound("XMin"); ok {
		return v
	}
	xmin, _, _, _, _ := p.member.Range()
	return xmin
}

func (p *Pdf) XMax() float64 {
	if v, ok := p.bound("XMax"); ok {
		return v
	}
	_, xmax, _, _, _ := p.member.Range()
	return xmax
}

func (p *Pdf) bound(key string) (float64, bool) {
	v, ok := p.set.info.Lookup(key)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func (p *Pdf) ForcePositive() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forcePositive
}

func (p *Pdf) SetForcePositive(mode int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forcePositive = mode
}

func (p *Pdf) Set() engine.PdfSet { return p.set }

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
