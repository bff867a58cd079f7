package buildcfg

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeBuildConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "build.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write build.toml: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeBuildConfig(t, `
default_args = ["-sdk", "iphoneos"]

[[target]]
name = "App"
path = "Sources/App"
args = ["-module-name", "App", "-sdk", "iphoneos"]

[[target]]
name = "AppTests"
path = "Tests/AppTests"
args = ["-module-name", "AppTests", "-enable-testing"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DefaultArgs) != 2 {
		t.Errorf("DefaultArgs = %v, want 2 elements", cfg.DefaultArgs)
	}
	if len(cfg.Targets) != 2 {
		t.Fatalf("Targets = %d, want 2", len(cfg.Targets))
	}
	if cfg.Targets[0].Name != "App" {
		t.Errorf("Targets[0].Name = %q, want App", cfg.Targets[0].Name)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing path", "[[target]]\nname = \"App\"\n"},
		{"duplicate path", "[[target]]\npath = \"Sources/App\"\n\n[[target]]\npath = \"Sources/App\"\n"},
		{"malformed toml", "default_args = [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeBuildConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoadFromRepo_Missing(t *testing.T) {
	cfg, err := LoadFromRepo(t.TempDir(), "")
	if err != nil {
		t.Fatalf("LoadFromRepo() error = %v", err)
	}
	if cfg != nil {
		t.Errorf("LoadFromRepo() = %+v, want nil for missing file", cfg)
	}
}

func TestTargetFor(t *testing.T) {
	cfg := &BuildConfig{
		DefaultArgs: []string{"-sdk", "iphoneos"},
		Targets: []Target{
			{Name: "App", Path: "Sources/App", Args: []string{"-module-name", "App"}},
			{Name: "AppUI", Path: "Sources/App/UI", Args: []string{"-module-name", "AppUI"}},
			{Name: "Tests", Path: "Tests", Args: []string{"-module-name", "AppTests"}},
		},
	}

	tests := []struct {
		name string
		path string
		want string // target name, "" for no match
	}{
		{"exact prefix", "Sources/App/Main.swift", "App"},
		{"nested prefers longest", "Sources/App/UI/View.swift", "AppUI"},
		{"target dir itself", "Sources/App", "App"},
		{"tests", "Tests/AppTests/MainTests.swift", "Tests"},
		{"no match", "Scripts/gen.swift", ""},
		{"sibling with shared name prefix", "Sources/AppKit/X.swift", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := cfg.TargetFor(tt.path)
			got := ""
			if target != nil {
				got = target.Name
			}
			if got != tt.want {
				t.Errorf("TargetFor(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestArgsFor(t *testing.T) {
	cfg := &BuildConfig{
		DefaultArgs: []string{"-sdk", "iphoneos"},
		Targets: []Target{
			{Path: "Sources/App", Args: []string{"-module-name", "App"}},
		},
	}

	if got := cfg.ArgsFor("Sources/App/Main.swift"); !reflect.DeepEqual(got, []string{"-module-name", "App"}) {
		t.Errorf("ArgsFor(matched) = %v", got)
	}
	if got := cfg.ArgsFor("Other/File.swift"); !reflect.DeepEqual(got, []string{"-sdk", "iphoneos"}) {
		t.Errorf("ArgsFor(unmatched) = %v, want default args", got)
	}

	var nilCfg *BuildConfig
	if got := nilCfg.ArgsFor("Sources/App/Main.swift"); got != nil {
		t.Errorf("nil ArgsFor() = %v, want nil", got)
	}
}

func TestModuleName(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"present", []string{"-sdk", "iphoneos", "-module-name", "App"}, "App"},
		{"first", []string{"-module-name", "App"}, "App"},
		{"absent", []string{"-sdk", "iphoneos"}, ""},
		{"flag is last", []string{"-sdk", "iphoneos", "-module-name"}, ""},
		{"empty args", nil, ""},
		{"first occurrence wins", []string{"-module-name", "App", "-module-name", "Other"}, "App"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ModuleName(tt.args); got != tt.want {
				t.Errorf("ModuleName(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
