package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("parses entities and defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, `defaults:
  priorityBoost: 1.5
entities:
  "alpha@relay.example":
    priorityBoost: 10
    maxDepth: 2
  "noise@relay.example":
    skip: true
`)

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}
		if got := len(cf.Entities); got != 2 {
			t.Errorf("len(Entities) = %d, want 2", got)
		}
		if cf.Defaults.PriorityBoost != 1.5 {
			t.Errorf("Defaults.PriorityBoost = %v, want 1.5", cf.Defaults.PriorityBoost)
		}
		if !cf.Entities["noise@relay.example"].Skip {
			t.Error("expected noise@relay.example to be marked skip")
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadConfigFile() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "entities: [not a map\n")
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("LoadConfigFile() error = nil, want parse error")
		}
	})

	t.Run("empty file yields usable defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "")
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}
		if cf.Entities == nil {
			t.Error("Entities map should be initialized for empty files")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, "")
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile(%q) = %q, want same path", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), "absent")
		if got := FindConfigFile(missing); got != "" {
			t.Errorf("FindConfigFile(%q) = %q, want empty", missing, got)
		}
	})
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	t.Run("explicit path loads entities", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, `entities:
  "alpha@relay.example":
    priorityBoost: 10
`)
		cfg := NewConfig()
		cfg.ConfigFilePath = path
		if err := cfg.LoadOverrides(); err != nil {
			t.Fatalf("LoadOverrides() error = %v", err)
		}
		if cfg.Entities == nil {
			t.Fatal("Entities is nil after loading an existing file")
		}
		if got := cfg.Entities.GetEntityConfig("alpha@relay.example").PriorityBoost; got != 10 {
			t.Errorf("PriorityBoost = %v, want 10", got)
		}
	})

	t.Run("explicit missing path is an error", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ConfigFilePath = filepath.Join(t.TempDir(), "absent")
		if err := cfg.LoadOverrides(); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("LoadOverrides() error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ConfigFilePath = writeConfigFile(t, "entities: [not a map\n")
		if err := cfg.LoadOverrides(); err == nil {
			t.Error("LoadOverrides() error = nil, want parse error")
		}
	})
}

func TestGetEntityConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: EntityConfig{PriorityBoost: 2, MaxDepth: 3},
		Entities: map[string]EntityConfig{
			"boosted@relay.example": {PriorityBoost: 20},
			"shallow@relay.example": {MaxDepth: 1, Skip: true},
		},
	}

	tests := []struct {
		name     string
		entityID string
		want     EntityConfig
	}{
		{
			name:     "unknown entity gets defaults",
			entityID: "other@relay.example",
			want:     EntityConfig{PriorityBoost: 2, MaxDepth: 3},
		},
		{
			name:     "entity boost overrides default, depth inherited",
			entityID: "boosted@relay.example",
			want:     EntityConfig{PriorityBoost: 20, MaxDepth: 3},
		},
		{
			name:     "skip and depth override, boost inherited",
			entityID: "shallow@relay.example",
			want:     EntityConfig{PriorityBoost: 2, MaxDepth: 1, Skip: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := cf.GetEntityConfig(tt.entityID); got != tt.want {
				t.Errorf("GetEntityConfig(%q) = %+v, want %+v", tt.entityID, got, tt.want)
			}
		})
	}
}
