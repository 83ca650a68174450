package source

import (
	"context"
	"fmt"

	"github.com/partons-hub/partons/internal/index"
	"github.com/partons-hub/partons/internal/model"
	"github.com/partons-hub/partons/internal/resource"
)

// Index 获取并解析仓库索引。
func (s *Source) Index(ctx context.Context) (*index.Index, error) {
	content, err := s.fetch(ctx, s.cfg.Index, resource.Index())
	if err != nil {
		return nil, err
	}
	idx, err := index.Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("index of %s: %w", s.cfg.Name, err)
	}
	return idx, nil
}

// Info 获取集合元数据。
func (s *Source) Info(ctx context.Context, h index.Header) (*model.Info, error) {
	remote := ReplaceName(s.cfg.Patterns.Info, h.Name)
	content, err := s.fetch(ctx, s.URL(remote), resource.Info(h.Name))
	if err != nil {
		return nil, asParseError(err, h.Identifier(), -1)
	}
	info, err := model.LoadInfo(content)
	if err != nil {
		return nil, &ParseError{Set: h.Identifier(), Member: -1, Err: err}
	}
	return info, nil
}

// Set 将整个集合落入缓存：grids 模式为归档时下载并解包归档，否则逐个获取 member。
func (s *Source) Set(ctx context.Context, h index.Header) error {
	if !s.archiveGrids() {
		for n := uint32(0); n < h.Members; n++ {
			if _, err := s.member(ctx, h, n); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := s.archive(ctx, h)
	return err
}

func (s *Source) archive(ctx context.Context, h index.Header) ([]byte, error) {
	remote := ReplaceName(s.cfg.Patterns.Grids, h.Name)
	return s.fetch(ctx, s.URL(remote), resource.Set(h.Name))
}

// Member 获取并解码集合的第 n 个 member。
func (s *Source) Member(ctx context.Context, h index.Header, n uint32) (*model.Member, error) {
	if h.Members > 0 && n >= h.Members {
		return nil, fmt.Errorf("%s member %d of %d: %w", h.Identifier(), n, h.Members, ErrMemberOutOfRange)
	}
	return s.member(ctx, h, n)
}

func (s *Source) member(ctx context.Context, h index.Header, n uint32) (*model.Member, error) {
	data := resource.Member(h.Name, n)

	var url string
	if s.archiveGrids() {
		if err := s.ensureUnpacked(ctx, h, data); err != nil {
			return nil, asParseError(err, h.Identifier(), int64(n))
		}
	} else {
		url = s.URL(ReplaceMember(ReplaceName(s.cfg.Patterns.Grids, h.Name), n))
	}

	content, err := s.fetch(ctx, url, data)
	if err != nil {
		return nil, asParseError(err, h.Identifier(), int64(n))
	}
	m, err := model.DecodeMember(content)
	if err != nil {
		return nil, &ParseError{Set: h.Identifier(), Member: int64(n), Err: err}
	}
	return m, nil
}

// ensureUnpacked 确保 Original member 可从集合归档获得，成员文件缺失时重新解包已缓存的归档。
func (s *Source) ensureUnpacked(ctx context.Context, h index.Header, data resource.Data) error {
	regular := resource.New(data, resource.Regular)
	original := resource.New(data, resource.Original)
	if s.store.Exists(regular) || s.store.Exists(original) {
		return nil
	}

	archive, err := s.archive(ctx, h)
	if err != nil {
		return err
	}
	if s.store.Exists(original) {
		return nil
	}

	setOriginal := resource.New(resource.Set(h.Name), resource.Original)
	if _, err := s.store.Unpack(ctx, setOriginal, s.format, archive); err != nil {
		return &convertError{data: setOriginal.Data, err: err}
	}
	if !s.store.Exists(original) {
		return fmt.Errorf("%s: member %d not found in set archive", h.Identifier(), data.Member)
	}
	return nil
}
