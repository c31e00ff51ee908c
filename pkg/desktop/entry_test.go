package desktop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `[Desktop Entry]
Type=Application
Name=Kdenlive
Comment=Video editor
Icon=kdenlive
Exec=/home/user/AppImages/kdenlive.appimage %U
Categories=AudioVideo;Video;
X-AppImage-Version=24.02
Terminal=false

[Desktop Action New]
Name=New project
Exec=kdenlive --new
`

func TestParse(t *testing.T) {
	e, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "Application", e.Type)
	assert.Equal(t, "Kdenlive", e.Name)
	assert.Equal(t, "Video editor", e.Comment)
	assert.Equal(t, "kdenlive", e.Icon)
	assert.Equal(t, "24.02", e.Version)
	assert.Equal(t, []string{"AudioVideo", "Video"}, e.Categories)
	assert.False(t, e.Terminal)
	assert.Equal(t, "/home/user/AppImages/kdenlive.appimage", e.ExecPath())
}

func TestParseMissingSection(t *testing.T) {
	_, err := Parse([]byte("[Other]\nName=x\n"))
	assert.Error(t, err)
}

func TestExecPathQuoted(t *testing.T) {
	e := &Entry{Exec: `"/opt/My Apps/tool.appimage" --flag`}
	assert.Equal(t, "/opt/My Apps/tool.appimage", e.ExecPath())

	assert.Equal(t, "", (&Entry{}).ExecPath())
}

func TestRewrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.desktop")
	require.NoError(t, os.WriteFile(src, []byte(sample), 0o644))

	dst := filepath.Join(dir, "apps", "Kdenlive.desktop")
	e, err := Rewrite(src, dst, map[string]string{
		"Exec": "/data/AppImages/Kdenlive_k.appimage",
		"Icon": "/data/AppImages/icons/k",
		"Name": "Kdenlive (24.02)",
	})
	require.NoError(t, err)

	assert.Equal(t, dst, e.Path)
	assert.Equal(t, "Kdenlive (24.02)", e.Name)
	assert.Equal(t, "/data/AppImages/Kdenlive_k.appimage", e.ExecPath())
	assert.Equal(t, "Video editor", e.Comment)

	raw, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Icon=/data/AppImages/icons/k")
	assert.Contains(t, string(raw), "[Desktop Action New]")
	assert.Contains(t, string(raw), "Categories=AudioVideo;Video;")
}

func TestIsDesktopFile(t *testing.T) {
	assert.True(t, IsDesktopFile("/x/y.desktop"))
	assert.True(t, IsDesktopFile("/x/Y.DESKTOP"))
	assert.False(t, IsDesktopFile("/x/y.appimage"))
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps", "tool.desktop")
	require.NoError(t, Write(path, &Entry{
		Name:       "Tool",
		Exec:       "/data/AppImages/tool.appimage",
		Icon:       "applications-other",
		Categories: []string{"Utility"},
	}))

	e, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Application", e.Type)
	assert.Equal(t, "Tool", e.Name)
	assert.Equal(t, "/data/AppImages/tool.appimage", e.ExecPath())
	assert.Equal(t, []string{"Utility"}, e.Categories)
}
