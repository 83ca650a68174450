package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// MarshalText 以 Go Duration 字符串输出，configs 命令打印时更易读。
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述全局运行时行为，所有数据源共享同一份参数。
type GlobalConfig struct {
	DataPath        string   `mapstructure:"DataPath" json:"dataPath"`
	LogLevel        string   `mapstructure:"LogLevel" json:"logLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath" json:"logFilePath,omitempty"`
	LogMaxSize      int      `mapstructure:"LogMaxSize" json:"logMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups" json:"logMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress" json:"logCompress"`
	MaxRetries      int      `mapstructure:"MaxRetries" json:"maxRetries"`
	InitialBackoff  Duration `mapstructure:"InitialBackoff" json:"initialBackoff"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout" json:"upstreamTimeout"`
	MemberCacheSize int      `mapstructure:"MemberCacheSize" json:"memberCacheSize"`
	ListenPort      int      `mapstructure:"ListenPort" json:"listenPort"`
}

// Patterns 描述远端 info 与 grid 文件相对 url 的路径模板。
// {name} 替换为集合名，{member} 替换为 4 位补零的成员序号。
type Patterns struct {
	Info  string `mapstructure:"info" json:"info"`
	Grids string `mapstructure:"grids" json:"grids"`
}

// SourceConfig 对应一个 [[sources]] 条目，即一个远端注册表。
type SourceConfig struct {
	Name     string   `mapstructure:"name" json:"name"`
	URL      string   `mapstructure:"url" json:"url"`
	Index    string   `mapstructure:"index" json:"index"`
	Format   string   `mapstructure:"format" json:"format"`
	Patterns Patterns `mapstructure:"patterns" json:"patterns"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global  GlobalConfig   `mapstructure:",squash" json:"global"`
	Sources []SourceConfig `mapstructure:"sources" json:"sources"`

	// Path 记录实际加载的配置文件路径。
	Path string `mapstructure:"-" json:"path"`
}

// Source 按名称查找数据源配置。
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, src := range c.Sources {
		if src.Name == name {
			return src, true
		}
	}
	return SourceConfig{}, false
}

// SourceNames 返回全部数据源名称，保持配置顺序。
func SourceNames(sources []SourceConfig) []string {
	if len(sources) == 0 {
		return nil
	}
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name
	}
	return names
}
