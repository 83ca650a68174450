package cache

import (
	"context"
	"errors"
	"time"

	"github.com/partons-hub/partons/internal/format"
	"github.com/partons-hub/partons/internal/resource"
)

// Store 负责单个注册表的磁盘缓存读写。磁盘布局遵循：
//
//	<DataPath>/<registry>/index.csv
//	<DataPath>/<registry>/<set>/info.yaml
//	<DataPath>/<registry>/<set>/set.tar.gz
//	<DataPath>/<registry>/<set>/NNNNNN.member.lz4
//
// Original 形态在叶子文件名前加 "original." 前缀。
type Store interface {
	// Exists 判断资源是否已落盘（目录不算）。
	Exists(r resource.Resource) bool

	// Read 读取完整内容，不存在时返回 ErrNotFound。
	Read(ctx context.Context, r resource.Resource) ([]byte, error)

	// Write 通过临时文件 + rename 原子写入并返回新的 Entry。
	Write(ctx context.Context, r resource.Resource, content []byte) (*Entry, error)

	// Unpack 对 Set 资源解包归档，其余资源原样返回。
	Unpack(ctx context.Context, r resource.Resource, f format.Format, content []byte) ([]byte, error)

	// Sets 列出已缓存的集合名。
	Sets() ([]string, error)

	// Root 返回注册表缓存根目录的绝对路径。
	Root() string
}

// Entry 描述一次写入或探测得到的缓存文件。
type Entry struct {
	Resource resource.Resource `json:"-"`
	Path     string            `json:"path"`
	Size     int64             `json:"size"`
	ModTime  time.Time         `json:"modTime"`
	// Digest 为内容的 BLAKE3 十六进制摘要，仅 Write 时计算。
	Digest string `json:"digest,omitempty"`
}

var (
	// ErrNotFound 表示缓存不存在。
	ErrNotFound = errors.New("cache entry not found")
	// ErrCacheUnavailable 表示未配置数据目录，缓存无法注册。
	ErrCacheUnavailable = errors.New("cache not registered: data path is empty")
)
