package prefabs

import (
	"embed"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

//go:embed *.yaml
var SpecsFS embed.FS

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// DiskDir is checked before the embedded copies so edits show up without a rebuild.
var DiskDir = "prefabs"

// Load reads a spec file. Absolute or ./-relative paths are read from disk only.
func Load(name string) ([]byte, error) {
	if isExplicitPath(name) {
		return os.ReadFile(name)
	}
	clean := cleanSpecPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return SpecsFS.ReadFile(clean)
}

func LoadScript(name string) ([]byte, error) {
	if isExplicitPath(name) {
		return os.ReadFile(name)
	}
	clean := cleanScriptPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return ScriptsFS.ReadFile(clean)
}

// Scripts lists the embedded scenario names.
func Scripts() []string {
	entries, err := ScriptsFS.ReadDir("scripts")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".tengo"))
	}
	return out
}

// ModTime reports the on-disk override's modification time, if there is one.
func ModTime(name string) (time.Time, bool) {
	p := name
	if !isExplicitPath(name) {
		p = diskPath(cleanSpecPath(name))
	}
	info, err := os.Stat(p)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Path is where a spec would be read from disk, for watching.
func Path(name string) string {
	if isExplicitPath(name) {
		return name
	}
	return diskPath(cleanSpecPath(name))
}

func isExplicitPath(name string) bool {
	return filepath.IsAbs(name) || strings.HasPrefix(filepath.ToSlash(name), "./") || strings.HasPrefix(filepath.ToSlash(name), "../")
}

func cleanSpecPath(name string) string {
	s := filepath.ToSlash(name)
	s = strings.TrimPrefix(s, "prefabs/")
	return s
}

func cleanScriptPath(name string) string {
	if name == "" {
		return ""
	}
	s := filepath.ToSlash(name)
	s = strings.TrimPrefix(s, "prefabs/")
	s = strings.TrimPrefix(s, "scripts/")
	if path.Ext(s) == "" {
		s += ".tengo"
	}
	return "scripts/" + s
}

func diskPath(clean string) string {
	return filepath.Join(DiskDir, filepath.FromSlash(clean))
}
