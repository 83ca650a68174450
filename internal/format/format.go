// Package format 将仓库下载的内容转换为规范表示。
// Native 仓库直接发布规范字节；Legacy 仓库发布 LHAPDF 文本格式
// （扁平 YAML 的 .info 与分段的 .dat 网格）。
package format

import (
	"fmt"
	"strings"

	"github.com/partons-hub/partons/internal/model"
	"github.com/partons-hub/partons/internal/resource"
)

// Format 决定下载字节采用的转换方式。
type Format int

const (
	Native Format = iota
	Legacy
)

// Parse 将配置值映射为 Format，空值视为 Native。
func Parse(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "native":
		return Native, nil
	case "legacy", "lhapdf":
		return Legacy, nil
	default:
		return Native, fmt.Errorf("unknown format %q", value)
	}
}

func (f Format) String() string {
	switch f {
	case Native:
		return "native"
	case Legacy:
		return "legacy"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Convert 将 data 的 Original 字节转换为 Regular 字节。
func (f Format) Convert(content []byte, data resource.Data) ([]byte, error) {
	switch f {
	case Native:
		return content, nil
	case Legacy:
		return convertLegacy(content, data)
	default:
		return nil, fmt.Errorf("unsupported format %s", f)
	}
}

// ConvertName 将归档条目路径映射为规范的文件名。
func (f Format) ConvertName(entryPath string) (string, error) {
	switch f {
	case Native:
		return nativeName(entryPath)
	case Legacy:
		return legacyName(entryPath)
	default:
		return "", fmt.Errorf("unsupported format %s", f)
	}
}

func convertLegacy(content []byte, data resource.Data) ([]byte, error) {
	switch data.Kind {
	case resource.KindIndex, resource.KindSet:
		return content, nil
	case resource.KindInfo:
		info, err := DecodeLegacyInfo(content)
		if err != nil {
			return nil, err
		}
		return info.YAML()
	case resource.KindMember:
		member, err := DecodeLegacyGrid(content)
		if err != nil {
			return nil, err
		}
		return model.EncodeMember(member)
	default:
		return nil, fmt.Errorf("unsupported data kind %s", data.Kind)
	}
}
