package config

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

const (
	appName = "partons"
	// FileName 是探测时查找的配置文件名。
	FileName = "partons.toml"
	// EnvConfig 直接指定配置文件路径，优先于目录探测。
	EnvConfig = "PARTONS_CONFIG"
)

// Discover 返回第一个存在的配置文件路径。探测顺序：
//   - $PARTONS_CONFIG
//   - 当前工作目录
//   - git 仓库根目录（若处于仓库中）
//   - $XDG_CONFIG_HOME/partons
func Discover() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv(EnvConfig)); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}

	for _, dir := range CandidateDirs() {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", ErrNoConfig
}

// CandidateDirs 返回按优先级排列的候选目录，空值已剔除。
func CandidateDirs() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if root := gitTopLevel(); root != "" {
		dirs = append(dirs, root)
	}
	dirs = append(dirs, filepath.Join(xdg.ConfigHome, appName))
	return dirs
}

func gitTopLevel() string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
