package scenes

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed *.yaml
var ScenesFS embed.FS

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// Loader reads scenes and scripts, preferring files under Dir on disk so
// edits show up without a rebuild. An empty Dir reads only the embedded copies.
type Loader struct {
	Dir string
}

// DefaultLoader reads from the scenes directory next to the binary.
var DefaultLoader = Loader{Dir: "scenes"}

func (l Loader) Load(name string) ([]byte, error) {
	clean := cleanScenePath(name)
	if l.Dir != "" {
		if data, err := os.ReadFile(filepath.Join(l.Dir, filepath.FromSlash(clean))); err == nil {
			return data, nil
		}
	}
	data, err := ScenesFS.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("read scene %q: %w", clean, err)
	}
	return data, nil
}

func (l Loader) LoadScript(name string) ([]byte, error) {
	clean := cleanScriptPath(name)
	if l.Dir != "" {
		if data, err := os.ReadFile(filepath.Join(l.Dir, filepath.FromSlash(clean))); err == nil {
			return data, nil
		}
	}
	data, err := ScriptsFS.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("read script %q: %w", clean, err)
	}
	return data, nil
}

func cleanScenePath(name string) string {
	s := filepath.ToSlash(name)
	s = strings.TrimPrefix(s, "scenes/")
	if filepath.Ext(s) == "" {
		s += ".yaml"
	}
	return s
}

func cleanScriptPath(name string) string {
	s := filepath.ToSlash(name)
	if after, ok := strings.CutPrefix(s, "scenes/"); ok {
		s = after
	}
	if after, ok := strings.CutPrefix(s, "scripts/"); ok {
		s = after
	}
	if filepath.Ext(s) == "" {
		s += ".tengo"
	}
	return "scripts/" + s
}
