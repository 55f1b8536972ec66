package console

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ThemeStore persists the theme preference as JSON.
type ThemeStore struct {
	path string
}

type themeFile struct {
	Theme Theme `json:"theme"`
}

// DefaultThemePath returns <user config dir>/taskflow/theme.json.
func DefaultThemePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "taskflow", "theme.json"), nil
}

func NewThemeStore(path string) *ThemeStore {
	return &ThemeStore{path: path}
}

// Load returns the saved theme, or light when nothing usable is saved.
func (s *ThemeStore) Load() (Theme, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ThemeLight, nil
	}
	if err != nil {
		return ThemeLight, err
	}
	var f themeFile
	if err := sonic.Unmarshal(data, &f); err != nil {
		return ThemeLight, fmt.Errorf("parse %s: %w", s.path, err)
	}
	if f.Theme != ThemeDark {
		return ThemeLight, nil
	}
	return ThemeDark, nil
}

func (s *ThemeStore) Save(t Theme) error {
	data, err := sonic.Marshal(themeFile{Theme: t})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
