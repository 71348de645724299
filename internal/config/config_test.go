package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HugoDaniel/treeshaker/internal/test"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
}

func boolPtr(b bool) *bool { return &b }

func TestLoadFileFormats(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"treeshaker.json", `{"treeshake": false, "maxPasses": 7, "external": ["react", "./vendor.js"], "logLevel": "debug"}`},
		{"treeshaker.yaml", "treeshake: false\nmaxPasses: 7\nexternal:\n  - react\n  - ./vendor.js\nlogLevel: debug\n"},
		{"treeshaker.toml", "treeshake = false\nmaxPasses = 7\nexternal = [\"react\", \"./vendor.js\"]\nlogLevel = \"debug\"\n"},
		{".treeshakerrc", `{"treeshake": false, "maxPasses": 7, "external": ["react", "./vendor.js"], "logLevel": "debug"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name)
			writeFile(t, path, tt.content)

			cfg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if cfg.Treeshake == nil || *cfg.Treeshake {
				t.Errorf("Treeshake: got %v, want false", cfg.Treeshake)
			}
			if cfg.MaxPasses == nil || *cfg.MaxPasses != 7 {
				t.Errorf("MaxPasses: got %v, want 7", cfg.MaxPasses)
			}
			test.AssertDeepEqual(t, cfg.External, []string{"react", "./vendor.js"})
			test.AssertEqual(t, cfg.LogLevel, "debug")
			if cfg.Freeze != nil {
				t.Errorf("Freeze: got %v, want unset", *cfg.Freeze)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	// Create nested directories with config in parent
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "project", "src", "lib")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}

	configPath := filepath.Join(tmpDir, "project", "treeshaker.json")
	writeFile(t, configPath, `{"minifyWhitespace": true}`)

	// Search from lib dir - should find config in parent
	cfg, foundPath, err := Load(subDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected config, got nil")
	}
	test.AssertEqual(t, foundPath, configPath)
	if cfg.MinifyWhitespace == nil || !*cfg.MinifyWhitespace {
		t.Errorf("MinifyWhitespace: got %v, want true", cfg.MinifyWhitespace)
	}
}

func TestLoadPrefersEarlierNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "treeshaker.toml"), "freeze = false\n")
	writeFile(t, filepath.Join(dir, "treeshaker.json"), `{"freeze": true}`)

	cfg, path, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	test.AssertEqual(t, filepath.Base(path), "treeshaker.json")
	test.AssertEqual(t, *cfg.Freeze, true)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, path, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	test.AssertEqual(t, path, "")
	if cfg == nil {
		t.Fatal("expected an empty config")
	}
	if cfg.Treeshake != nil || len(cfg.Input) != 0 {
		t.Errorf("expected an empty config, got %+v", cfg)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treeshaker.json")
	writeFile(t, path, `{"treeshake": true, "logLevel": "info"}`)

	t.Setenv("TREESHAKER_TREESHAKE", "false")
	t.Setenv("TREESHAKER_LOG_LEVEL", "warn")
	t.Setenv("TREESHAKER_MAX_PASSES", "12")
	t.Setenv("TREESHAKER_SILENCE", "THIS_IS_UNDEFINED,EMPTY_BUNDLE")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Treeshake == nil || *cfg.Treeshake {
		t.Errorf("Treeshake: got %v, want false", cfg.Treeshake)
	}
	test.AssertEqual(t, cfg.LogLevel, "warn")
	if cfg.MaxPasses == nil || *cfg.MaxPasses != 12 {
		t.Errorf("MaxPasses: got %v, want 12", cfg.MaxPasses)
	}
	test.AssertDeepEqual(t, cfg.Silence, []string{"THIS_IS_UNDEFINED", "EMPTY_BUNDLE"})
}

func TestValidate(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"Empty", Config{}, ""},
		{"KnownLevel", Config{LogLevel: "Silent"}, ""},
		{"NegativePasses", Config{MaxPasses: &negative}, "maxPasses must not be negative"},
		{"UnknownLevel", Config{LogLevel: "chatty"}, `unknown logLevel "chatty"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFileRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "treeshaker.json")
	writeFile(t, path, `{"logLevel": "chatty"}`)
	if _, err := LoadFile(path); err == nil {
		t.Error("expected an error for an unknown log level")
	}
}

func TestToOptions(t *testing.T) {
	// Empty config should use defaults
	cfg := &Config{}
	opts := cfg.ToOptions()
	test.AssertEqual(t, opts.Treeshake, true)
	test.AssertEqual(t, opts.Freeze, true)
	test.AssertEqual(t, opts.MinifyWhitespace, false)

	passes := 3
	cfg = &Config{
		Treeshake:                boolPtr(false),
		UnknownGlobalSideEffects: boolPtr(false),
		PropertyReadSideEffects:  boolPtr(false),
		Freeze:                   boolPtr(false),
		NamespaceToStringTag:     boolPtr(true),
		MinifyWhitespace:         boolPtr(true),
		MaxPasses:                &passes,
		Silence:                  []string{"EMPTY_BUNDLE"},
		External:                 []string{"react"},
	}
	opts = cfg.ToOptions()
	test.AssertEqual(t, opts.Treeshake, false)
	test.AssertEqual(t, opts.UnknownGlobalSideEffects, false)
	test.AssertEqual(t, opts.PropertyReadSideEffects, false)
	test.AssertEqual(t, opts.Freeze, false)
	test.AssertEqual(t, opts.NamespaceToStringTag, true)
	test.AssertEqual(t, opts.MinifyWhitespace, true)
	test.AssertEqual(t, opts.MaxPasses, 3)
	test.AssertDeepEqual(t, opts.Silence, []string{"EMPTY_BUNDLE"})
	test.AssertDeepEqual(t, opts.External, []string{"react"})
}

func TestMerge(t *testing.T) {
	cfg := &Config{
		MinifyWhitespace: boolPtr(false),
		Freeze:           boolPtr(true),
		External:         []string{"react"},
		Silence:          []string{"EMPTY_BUNDLE"},
	}

	// CLI should override config
	opts := cfg.Merge(MergeOptions{
		MinifyWhitespace: boolPtr(true),
		NoTreeshake:      true,
		External:         []string{"vue"},
		Silence:          []string{"CIRCULAR_DEPENDENCY"},
	})
	test.AssertEqual(t, opts.MinifyWhitespace, true)
	test.AssertEqual(t, opts.Treeshake, false)
	test.AssertEqual(t, opts.Freeze, true)
	test.AssertDeepEqual(t, opts.External, []string{"react", "vue"})
	test.AssertDeepEqual(t, opts.Silence, []string{"EMPTY_BUNDLE", "CIRCULAR_DEPENDENCY"})

	// The config's own lists are not modified
	test.AssertDeepEqual(t, cfg.External, []string{"react"})
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "treeshaker.toml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	test.AssertDeepEqual(t, cfg.Input, []string{"src/index.js"})
	test.AssertEqual(t, *cfg.Treeshake, true)
	test.AssertEqual(t, *cfg.Freeze, true)
	test.AssertEqual(t, *cfg.MaxPasses, 100)
	test.AssertEqual(t, cfg.LogLevel, "info")

	if err := WriteDefault(path); err == nil {
		t.Error("expected WriteDefault to refuse overwriting")
	}
}
