// Package desktop reads and writes freedesktop.org desktop entry files.
package desktop

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

const sectionName = "Desktop Entry"

func init() {
	// Desktop files use "Key=Value" without padding.
	ini.PrettyFormat = false
}

// Entry is the subset of a desktop entry the package backends consume.
type Entry struct {
	Path string

	Type       string
	Name       string
	Comment    string
	Icon       string
	Exec       string
	Version    string // X-AppImage-Version
	Categories []string
	Terminal   bool
	NoDisplay  bool
}

// Load parses the desktop file at path.
func Load(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	e, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.Path = path
	return e, nil
}

// Parse parses desktop entry contents.
func Parse(data []byte) (*Entry, error) {
	cfg, err := load(data)
	if err != nil {
		return nil, err
	}

	sec, err := cfg.GetSection(sectionName)
	if err != nil {
		return nil, fmt.Errorf("missing [%s] section", sectionName)
	}

	e := &Entry{
		Type:      sec.Key("Type").String(),
		Name:      sec.Key("Name").String(),
		Comment:   sec.Key("Comment").String(),
		Icon:      sec.Key("Icon").String(),
		Exec:      sec.Key("Exec").String(),
		Version:   sec.Key("X-AppImage-Version").String(),
		Terminal:  sec.Key("Terminal").MustBool(false),
		NoDisplay: sec.Key("NoDisplay").MustBool(false),
	}
	for _, c := range strings.Split(sec.Key("Categories").String(), ";") {
		if c = strings.TrimSpace(c); c != "" {
			e.Categories = append(e.Categories, c)
		}
	}
	return e, nil
}

// ExecPath returns the program of the Exec line without arguments or field codes.
func (e *Entry) ExecPath() string {
	exec := strings.TrimSpace(e.Exec)
	if strings.HasPrefix(exec, `"`) {
		if end := strings.Index(exec[1:], `"`); end >= 0 {
			return exec[1 : end+1]
		}
	}
	if fields := strings.Fields(exec); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// IsDesktopFile reports whether path looks like a desktop entry.
func IsDesktopFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".desktop")
}

// Rewrite copies the desktop file src to dst with the given keys of the main
// section replaced, and returns the parsed result.
func Rewrite(src, dst string, overrides map[string]string) (*Entry, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	cfg, err := load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}

	sec, err := cfg.GetSection(sectionName)
	if err != nil {
		return nil, fmt.Errorf("%s: missing [%s] section", src, sectionName)
	}
	for k, v := range overrides {
		sec.Key(k).SetValue(v)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, err
	}
	if err := cfg.SaveTo(dst); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return Load(dst)
}

// Write creates a new desktop file at path from e.
func Write(path string, e *Entry) error {
	cfg := ini.Empty(ini.LoadOptions{IgnoreInlineComment: true})
	sec, err := cfg.NewSection(sectionName)
	if err != nil {
		return err
	}

	typ := e.Type
	if typ == "" {
		typ = "Application"
	}
	set := func(k, v string) {
		if v != "" {
			sec.Key(k).SetValue(v)
		}
	}
	set("Type", typ)
	set("Name", e.Name)
	set("Comment", e.Comment)
	set("Icon", e.Icon)
	set("Exec", e.Exec)
	set("X-AppImage-Version", e.Version)
	if len(e.Categories) > 0 {
		set("Categories", strings.Join(e.Categories, ";")+";")
	}
	sec.Key("Terminal").SetValue(strconv.FormatBool(e.Terminal))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return cfg.SaveTo(path)
}

func load(data []byte) (*ini.File, error) {
	return ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		AllowShadows:            false,
		SkipUnrecognizableLines: true,
	}, data)
}
