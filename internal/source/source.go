// Package source 对接单个远程仓库：按配置的模式生成远程 URL，在 cache.Store 之上
// 执行下载、转换与缓存流程，并将结果解码为 index、info 与 member。
package source

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/partons-hub/partons/internal/cache"
	"github.com/partons-hub/partons/internal/config"
	"github.com/partons-hub/partons/internal/format"
)

const (
	NamePlaceholder   = "{name}"
	MemberPlaceholder = "{member}"

	defaultMemberCacheSize = 16
)

// Options 携带 Source 的运行时依赖。
type Options struct {
	// DataPath 为各仓库缓存所在的根目录。
	DataPath string
	// Store 覆盖基于 DataPath 构建的文件系统缓存。
	Store           cache.Store
	Client          *http.Client
	Logger          *logrus.Logger
	MaxRetries      int
	InitialBackoff  time.Duration
	MemberCacheSize int
}

// Source 表示一个已配置的远程仓库及其缓存。
type Source struct {
	cfg    config.SourceConfig
	format format.Format
	store  cache.Store
	client *http.Client
	logger *logrus.Logger

	maxRetries      int
	initialBackoff  time.Duration
	memberCacheSize int

	group singleflight.Group
	// 测试中替换
	sleep func(time.Duration) <-chan time.Time
}

// New 校验 cfg 并为仓库装配缓存。DataPath 为空且未显式提供 Store 时返回 cache.ErrCacheUnavailable。
func New(cfg config.SourceConfig, opts Options) (*Source, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("source name required")
	}
	f, err := format.Parse(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
	}

	store := opts.Store
	if store == nil {
		c, err := cache.New(opts.DataPath, cfg.Name)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
		}
		store = c
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	backoff := opts.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	memberCacheSize := opts.MemberCacheSize
	if memberCacheSize <= 0 {
		memberCacheSize = defaultMemberCacheSize
	}
	if cfg.Patterns.Info == "" {
		cfg.Patterns.Info = NamePlaceholder + "/info.yaml"
	}
	if cfg.Patterns.Grids == "" {
		cfg.Patterns.Grids = NamePlaceholder + ".tar.gz"
	}

	return &Source{
		cfg:             cfg,
		format:          f,
		store:           store,
		client:          client,
		logger:          logger,
		maxRetries:      max(opts.MaxRetries, 0),
		initialBackoff:  backoff,
		memberCacheSize: memberCacheSize,
		sleep:           time.After,
	}, nil
}

func (s *Source) Name() string { return s.cfg.Name }

func (s *Source) Config() config.SourceConfig { return s.cfg }

func (s *Source) Format() format.Format { return s.format }

// Store 返回底层缓存。
func (s *Source) Store() cache.Store { return s.store }

// URL 将仓库基础 URL 与远程路径拼接。
func (s *Source) URL(path string) string {
	return s.cfg.URL + path
}

// CachedSets 列出缓存中已存在的集合目录。
func (s *Source) CachedSets() ([]string, error) {
	return s.store.Sets()
}

// ReplaceName 替换模式中的 {name}。
func ReplaceName(pattern, name string) string {
	return strings.ReplaceAll(pattern, NamePlaceholder, name)
}

// ReplaceMember 将 {member} 替换为补零的 4 位 member 下标。
func ReplaceMember(pattern string, n uint32) string {
	return strings.ReplaceAll(pattern, MemberPlaceholder, fmt.Sprintf("%04d", n))
}

// archiveGrids 判断 grids 模式是否指向整个集合的归档。
func (s *Source) archiveGrids() bool {
	p := strings.ToLower(s.cfg.Patterns.Grids)
	return strings.HasSuffix(p, ".tar.gz") || strings.HasSuffix(p, ".tgz")
}
