package builtin

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rickchristie/gentrun"
)

// Tool names.
const (
	CurrentTimeName = "current_time"
	ReadFileName    = "read_file"
	ListDirName     = "list_dir"
	ShellName       = "shell"
)

// Names lists every built-in tool in registration order.
var Names = []string{CurrentTimeName, ReadFileName, ListDirName, ShellName}

const (
	DefaultShellTimeout   = 30 * time.Second
	DefaultMaxOutputBytes = 64 * 1024
)

// Config configures the built-in tools.
type Config struct {
	// Root confines the file tools and is the shell working directory. Default: ".".
	Root string

	// ShellTimeout bounds each shell command. Default: DefaultShellTimeout.
	ShellTimeout time.Duration

	// MaxOutputBytes truncates file contents and command output. Default: DefaultMaxOutputBytes.
	MaxOutputBytes int

	// Now is the clock used by current_time. Default: time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Root == "" {
		c.Root = "."
	}
	if c.ShellTimeout <= 0 {
		c.ShellTimeout = DefaultShellTimeout
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// All returns every built-in tool.
func All(cfg Config) []gentrun.Tool {
	tools, _ := Select(cfg, Names)
	return tools
}

// Select returns the named built-in tools in the order given. Unknown names are an error.
func Select(cfg Config, names []string) ([]gentrun.Tool, error) {
	cfg = cfg.withDefaults()
	out := make([]gentrun.Tool, 0, len(names))
	for _, name := range names {
		switch name {
		case CurrentTimeName:
			out = append(out, CurrentTime(cfg.Now))
		case ReadFileName:
			out = append(out, ReadFile(cfg.Root, cfg.MaxOutputBytes))
		case ListDirName:
			out = append(out, ListDir(cfg.Root))
		case ShellName:
			out = append(out, Shell(cfg.Root, cfg.ShellTimeout, cfg.MaxOutputBytes))
		default:
			return nil, fmt.Errorf("unknown built-in tool %q (available: %s)", name, strings.Join(Names, ", "))
		}
	}
	return out, nil
}

// resolve joins path onto root and rejects results outside root.
func resolve(root, path string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", gentrun.NewToolError(gentrun.ToolErrConfig, "invalid root %q: %v", root, err)
	}
	if path == "" {
		path = "."
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(absRoot, path)
	}
	full = filepath.Clean(full)

	rel, err := filepath.Rel(absRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", gentrun.NewToolError(gentrun.ToolErrPermission, "path %q is outside the allowed directory", path)
	}
	return full, nil
}

// truncate caps s at max bytes, marking the cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + fmt.Sprintf("\n\n[truncated: %d of %d bytes shown]", max, len(s))
}
