package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/partons-hub/partons/internal/format"
)

// Validate 针对语义级别做进一步校验，防止非法配置进入数据拉取流程。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if strings.TrimSpace(g.DataPath) == "" {
		return newFieldError("Global.DataPath", "不能为空")
	}
	if g.MaxRetries < 0 {
		return newFieldError("Global.MaxRetries", "不能为负数")
	}
	if g.InitialBackoff.DurationValue() <= 0 {
		return newFieldError("Global.InitialBackoff", "必须大于 0")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	if g.MemberCacheSize <= 0 {
		return newFieldError("Global.MemberCacheSize", "必须大于 0")
	}

	if len(c.Sources) == 0 {
		return errors.New("至少需要配置一个数据源")
	}

	seenNames := map[string]struct{}{}
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Name == "" {
			return newFieldError("sources[].name", "不能为空")
		}
		if strings.ContainsAny(src.Name, `/\`) || src.Name == "." || src.Name == ".." {
			return newFieldError(sourceField(src.Name, "name"), "不能包含路径分隔符")
		}
		if _, exists := seenNames[src.Name]; exists {
			return newFieldError(sourceField(src.Name, "name"), "重复")
		}
		seenNames[src.Name] = struct{}{}

		if err := validateRemote(src.URL); err != nil {
			return fmt.Errorf("%s: %w", sourceField(src.Name, "url"), err)
		}
		if err := validateRemote(src.Index); err != nil {
			return fmt.Errorf("%s: %w", sourceField(src.Name, "index"), err)
		}

		f, err := format.Parse(src.Format)
		if err != nil {
			return newFieldError(sourceField(src.Name, "format"), "仅支持 native|legacy")
		}
		src.Format = f.String()

		if !strings.Contains(src.Patterns.Info, "{name}") {
			return newFieldError(sourceField(src.Name, "patterns.info"), "必须包含 {name}")
		}
		if strings.TrimSpace(src.Patterns.Grids) == "" {
			return newFieldError(sourceField(src.Name, "patterns.grids"), "不能为空")
		}
	}

	return nil
}

func validateRemote(raw string) error {
	if raw == "" {
		return errors.New("缺少远端地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，远端: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("远端缺少 Host: %s", raw)
	}
	return nil
}
