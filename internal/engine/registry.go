package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

const defaultBackendKey = "noop"

var globalRegistry = newRegistry()

type registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

func newRegistry() *registry {
	return &registry{backends: make(map[string]Backend)}
}

// Register 将后端加入全局注册表，重复键会返回错误。
func Register(backend Backend) error {
	return globalRegistry.register(backend)
}

// MustRegister 在注册失败时 panic，适合后端 init() 中调用。
func MustRegister(backend Backend) {
	if err := Register(backend); err != nil {
		panic(err)
	}
}

// Resolve 返回指定键的后端。
func Resolve(key string) (Backend, bool) {
	return globalRegistry.resolve(key)
}

// List 返回按键排序的后端列表。
func List() []Backend {
	return globalRegistry.list()
}

// Keys 返回所有已注册后端的键值，供 CLI 帮助与诊断使用。
func Keys() []string {
	items := List()
	result := make([]string, len(items))
	for i, b := range items {
		result[i] = b.Key
	}
	return result
}

// DefaultBackendKey 返回兜底 noop 后端的键值。
func DefaultBackendKey() string {
	return defaultBackendKey
}

// Open 使用 key 对应的后端打开集合；key 为空时使用兜底后端。
func Open(ctx context.Context, key string, set Loader) (PdfSet, error) {
	if strings.TrimSpace(key) == "" {
		key = defaultBackendKey
	}
	backend, ok := Resolve(key)
	if !ok {
		return nil, fmt.Errorf("unknown engine backend %q (available: %s)", key, strings.Join(Keys(), ", "))
	}
	return backend.Open(ctx, set)
}

func (r *registry) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *registry) register(backend Backend) error {
	key := r.normalizeKey(backend.Key)
	if key == "" {
		return fmt.Errorf("backend key is required")
	}
	if backend.Open == nil {
		return fmt.Errorf("backend %s has no constructor", key)
	}
	backend.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[key]; exists {
		return fmt.Errorf("backend %s already registered", key)
	}
	r.backends[key] = backend
	return nil
}

func (r *registry) resolve(key string) (Backend, bool) {
	if key == "" {
		return Backend{}, false
	}
	normalized := r.normalizeKey(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, ok := r.backends[normalized]
	return backend, ok
}

func (r *registry) list() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.backends) == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.backends))
	for key := range r.backends {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]Backend, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.backends[key])
	}
	return result
}
