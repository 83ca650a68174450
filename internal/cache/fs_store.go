package cache

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/partons-hub/partons/internal/resource"
)

// New 以 <root>/<registry> 为根目录构建缓存。目录按需在首次写入时创建。
func New(root, registry string) (*Cache, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrCacheUnavailable
	}
	if registry == "" || registry != filepath.Base(registry) || registry == "." || registry == ".." {
		return nil, fmt.Errorf("invalid registry name %q", registry)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve data path: %w", err)
	}

	return &Cache{
		root:  filepath.Join(abs, registry),
		locks: make(map[string]*entryLock),
	}, nil
}

// Cache 通过 entryLock 避免同一路径并发写入。
type Cache struct {
	root string

	mu    sync.Mutex
	locks map[string]*entryLock
}

var _ Store = (*Cache)(nil)

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (c *Cache) Root() string {
	return c.root
}

func (c *Cache) Exists(r resource.Resource) bool {
	filePath, err := c.path(r.Path())
	if err != nil {
		return false
	}
	info, err := os.Stat(filePath)
	return err == nil && !info.IsDir()
}

func (c *Cache) Read(ctx context.Context, r resource.Resource) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := c.path(r.Path())
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return content, nil
}

// Stat 返回已缓存文件的 Entry（不计算摘要）。
func (c *Cache) Stat(r resource.Resource) (*Entry, error) {
	filePath, err := c.path(r.Path())
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}
	return &Entry{Resource: r, Path: filePath, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (c *Cache) Write(ctx context.Context, r resource.Resource, content []byte) (*Entry, error) {
	entry, err := c.writeFile(ctx, r.Path(), content)
	if err != nil {
		return nil, err
	}
	entry.Resource = r
	return entry, nil
}

func (c *Cache) writeFile(ctx context.Context, rel string, content []byte) (*Entry, error) {
	unlock := c.lockEntry(rel)
	defer unlock()

	filePath, err := c.path(rel)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".cache-*")
	if err != nil {
		return nil, err
	}
	tempName := tempFile.Name()

	hasher := blake3.New()
	written, err := copyWithContext(ctx, io.MultiWriter(tempFile, hasher), bytes.NewReader(content))
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return nil, err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}

	return &Entry{
		Path:    filePath,
		Size:    written,
		ModTime: info.ModTime(),
		Digest:  hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Sets 返回根目录下的直接子目录名（排序后）；根目录不存在时返回空列表。
func (c *Cache) Sets() ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	sets := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			sets = append(sets, entry.Name())
		}
	}
	sort.Strings(sets)
	return sets, nil
}

func (c *Cache) lockEntry(key string) func() {
	c.mu.Lock()
	lock := c.locks[key]
	if lock == nil {
		lock = &entryLock{}
		c.locks[key] = lock
	}
	lock.refs++
	c.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		c.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(c.locks, key)
		}
		c.mu.Unlock()
	}
}

// path 把 / 分隔的相对路径解析到根目录下，拒绝越界路径。
func (c *Cache) path(rel string) (string, error) {
	clean := strings.TrimPrefix(path.Clean("/"+rel), "/")
	if clean == "" {
		return "", errors.New("empty cache path")
	}

	filePath := filepath.Join(c.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(filePath, c.root+string(filepath.Separator)) {
		return "", errors.New("invalid cache path")
	}
	return filePath, nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
