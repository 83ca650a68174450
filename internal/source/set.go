package source

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/partons-hub/partons/internal/index"
	"github.com/partons-hub/partons/internal/model"
)

// Set 是某个 source 中单个数据集的句柄。Info 只获取一次，解码后的 member 保存在有界内存缓存中。
type Set struct {
	source *Source
	header index.Header

	mu   sync.Mutex
	info *model.Info

	members *lru.Cache[uint32, *model.Member]
}

// OpenSet 在索引中解析 pattern，并返回匹配数据集的句柄。
func (s *Source) OpenSet(ctx context.Context, pattern string) (*Set, error) {
	idx, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	h, err := idx.Get(pattern)
	if err != nil {
		return nil, err
	}
	return s.NewSet(h)
}

// NewSet 为已知 header 返回句柄。
func (s *Source) NewSet(h index.Header) (*Set, error) {
	members, err := lru.New[uint32, *model.Member](s.memberCacheSize)
	if err != nil {
		return nil, err
	}
	return &Set{source: s, header: h, members: members}, nil
}

// Name 为集合名，在所属 source 内唯一。
func (set *Set) Name() string { return set.header.Name }

// SourceName 为集合来源仓库的名称。
func (set *Set) SourceName() string { return set.source.Name() }

func (set *Set) Header() index.Header { return set.header }

func (set *Set) Info(ctx context.Context) (*model.Info, error) {
	set.mu.Lock()
	defer set.mu.Unlock()
	if set.info != nil {
		return set.info, nil
	}
	info, err := set.source.Info(ctx, set.header)
	if err != nil {
		return nil, err
	}
	set.info = info
	return info, nil
}

func (set *Set) Member(ctx context.Context, n uint32) (*model.Member, error) {
	if m, ok := set.members.Get(n); ok {
		return m, nil
	}
	m, err := set.source.Member(ctx, set.header, n)
	if err != nil {
		return nil, err
	}
	set.members.Add(n, m)
	return m, nil
}

// Members 获取 header 中列出的全部 member。
func (set *Set) Members(ctx context.Context) ([]*model.Member, error) {
	out := make([]*model.Member, 0, set.header.Members)
	for n := uint32(0); n < set.header.Members; n++ {
		m, err := set.Member(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
