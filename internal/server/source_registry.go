package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/partons-hub/partons/internal/config"
	"github.com/partons-hub/partons/internal/source"
)

// SourceRoute 将数据源配置与构建好的 source.Source 聚合在一起，
// 供 CLI 与诊断接口直接复用，避免重复解析配置。
type SourceRoute struct {
	// Config 是用户在 partons.toml 中声明的 [[sources]] 字段副本。
	Config config.SourceConfig
	// Source 持有该注册表的缓存与下载客户端。
	Source *source.Source
}

// SourceRegistry 提供数据源名称到 SourceRoute 的查询能力。
type SourceRegistry struct {
	routes  map[string]*SourceRoute
	ordered []*SourceRoute
}

// NewSourceRegistry 根据配置构建全部数据源。调用方应在启动阶段创建一次并复用，
// 同一数据源的并发请求因此共享同一个 singleflight 组。
func NewSourceRegistry(cfg *config.Config, client *http.Client, logger *logrus.Logger) (*SourceRegistry, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	registry := &SourceRegistry{
		routes: make(map[string]*SourceRoute, len(cfg.Sources)),
	}

	opts := source.Options{
		DataPath:        cfg.Global.DataPath,
		Client:          client,
		Logger:          logger,
		MaxRetries:      cfg.Global.MaxRetries,
		InitialBackoff:  cfg.Global.InitialBackoff.DurationValue(),
		MemberCacheSize: cfg.Global.MemberCacheSize,
	}

	for _, sc := range cfg.Sources {
		if _, exists := registry.routes[sc.Name]; exists {
			return nil, fmt.Errorf("duplicate source %s", sc.Name)
		}
		src, err := source.New(sc, opts)
		if err != nil {
			return nil, err
		}
		route := &SourceRoute{Config: sc, Source: src}
		registry.routes[sc.Name] = route
		registry.ordered = append(registry.ordered, route)
	}

	return registry, nil
}

// Lookup 根据名称查找数据源。
func (r *SourceRegistry) Lookup(name string) (*SourceRoute, bool) {
	if r == nil {
		return nil, false
	}
	route, ok := r.routes[name]
	return route, ok
}

// List 返回按配置顺序排列的数据源，用于 configs 命令与 /-/sources 输出。
func (r *SourceRegistry) List() []SourceRoute {
	if r == nil || len(r.ordered) == 0 {
		return nil
	}

	result := make([]SourceRoute, len(r.ordered))
	for i, route := range r.ordered {
		result[i] = *route
	}
	return result
}
