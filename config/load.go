package config

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/enso/parameter"
)

// Load resolves defaults, then the cfg file, then the rc file, under userDir
// An empty userDir falls back to DefaultUserDir
func Load(userDir string, log *zap.SugaredLogger) (*Config, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	c := Default()
	if userDir != "" {
		c.UserDir = userDir
	}

	if err := c.loadFile(c.CfgPath()); err != nil {
		return nil, err
	}

	lines, err := runRC(c.RCPath())
	if err != nil {
		log.Warnw("rc file skipped", "path", c.RCPath(), "error", err)
	}
	c.applyRC(lines, log)
	return c, nil
}

// loadFile applies a YAML mapping of option names; a missing file is not an error
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return c.Decode(data)
}

// Decode applies a YAML mapping of option names to c
func (c *Config) Decode(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if err := c.Set(name, raw[name]); err != nil {
			return err
		}
	}
	return nil
}

// runRC executes the rc file when present and executable, returning its stdout lines
func runRC(path string) ([]string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), parameter.RCTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path)
	cmd.Dir = filepath.Dir(path)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run rc: %w", err)
	}

	var lines []string
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// applyRC parses KEY=value lines; bad lines are logged and skipped
func (c *Config) applyRC(lines []string, log *zap.SugaredLogger) {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			log.Warnw("rc line ignored", "line", line)
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if err := c.Set(strings.TrimSpace(key), value); err != nil {
			log.Warnw("rc option ignored", "key", key, "error", err)
		}
	}
}

// Save writes every option that differs from the defaults to path as YAML
func (c *Config) Save(path string) error {
	def := Default()
	def.UserDir = c.UserDir
	diff := make(map[string]any)
	for name, v := range c.Values() {
		if dv, _ := def.Get(name); !reflect.DeepEqual(v, dv) {
			diff[name] = v
		}
	}

	data, err := yaml.Marshal(diff)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
