package cache

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/klauspost/compress/gzip"

	"github.com/partons-hub/partons/internal/format"
	"github.com/partons-hub/partons/internal/resource"
)

// Unpack 仅处理 Set 资源：gunzip + untar，每个非空普通文件经 f.ConvertName 改名后以
// Original 形态写入集合目录。无法识别的条目名返回错误。返回值始终是传入的归档字节。
func (c *Cache) Unpack(ctx context.Context, r resource.Resource, f format.Format, content []byte) ([]byte, error) {
	if r.Data.Kind != resource.KindSet {
		return content, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open set archive %s: %w", r.Data.Set, err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read set archive %s: %w", r.Data.Set, err)
		}
		if hdr.Typeflag != tar.TypeReg || hdr.Size == 0 {
			continue
		}

		name, err := f.ConvertName(hdr.Name)
		if err != nil {
			return nil, fmt.Errorf("set archive %s: %w", r.Data.Set, err)
		}

		body, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read entry %s: %w", hdr.Name, err)
		}
		if _, err := c.writeFile(ctx, path.Join(r.Data.Set, resource.OriginalName(name)), body); err != nil {
			return nil, err
		}
	}
	return content, nil
}
