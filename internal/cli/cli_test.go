package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bubblechart/pkg/cache"
	"github.com/matzehuels/bubblechart/pkg/config"
	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/styles"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	c := New(&bytes.Buffer{}, log.InfoLevel)
	root := c.RootCommand()

	want := []string{"render", "layout", "visualize", "simulate", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestRootCommandLoadsConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cacheDir := filepath.Join(dir, "cache")
	data := "[cache]\nbackend = \"file\"\ndir = \"" + filepath.ToSlash(cacheDir) + "\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	c := New(&bytes.Buffer{}, log.InfoLevel)
	c.out = &out
	root := c.RootCommand()
	root.SetArgs([]string{"--config", path, "cache", "path"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != filepath.ToSlash(cacheDir) {
		t.Errorf("cache path = %q, want %q", got, cacheDir)
	}
}

func TestNewCacheBackends(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		c := newTestCLI(t)
		cc, err := c.newCache(ctx, false)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := cc.(*cache.NullCache); !ok {
			t.Errorf("got %T, want *cache.NullCache", cc)
		}
	})

	t.Run("file", func(t *testing.T) {
		c := newTestCLI(t)
		c.Config.Cache.Backend = config.BackendFile
		c.Config.Cache.Dir = t.TempDir()
		cc, err := c.newCache(ctx, false)
		if err != nil {
			t.Fatal(err)
		}
		fc, ok := cc.(*cache.FileCache)
		if !ok {
			t.Fatalf("got %T, want *cache.FileCache", cc)
		}
		if fc.Dir() != c.Config.Cache.Dir {
			t.Errorf("Dir() = %q", fc.Dir())
		}
	})

	t.Run("no-cache flag wins", func(t *testing.T) {
		c := newTestCLI(t)
		c.Config.Cache.Backend = config.BackendFile
		c.Config.Cache.Dir = t.TempDir()
		cc, _ := c.newCache(ctx, true)
		if _, ok := cc.(*cache.NullCache); !ok {
			t.Errorf("got %T, want *cache.NullCache", cc)
		}
	})

	t.Run("unreachable redis falls back", func(t *testing.T) {
		c := newTestCLI(t)
		c.Config.Cache.Backend = config.BackendRedis
		c.Config.Cache.RedisAddr = "127.0.0.1:1"
		cc, err := c.newCache(ctx, false)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := cc.(*cache.NullCache); !ok {
			t.Errorf("got %T, want *cache.NullCache", cc)
		}
	})
}

func TestServerDefaults(t *testing.T) {
	c := newTestCLI(t)
	c.Config.Render.Policy = "nested"
	c.Config.Render.Width = 640
	d := c.serverDefaults()
	if d.Policy != "nested" || d.Width != 640 {
		t.Errorf("serverDefaults() = %+v", d)
	}
}

func TestCompletionBash(t *testing.T) {
	var out bytes.Buffer
	c := New(&bytes.Buffer{}, log.InfoLevel)
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.toml"), "completion", "bash"})
	err := root.ExecuteContext(context.Background())
	if err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}

	out.Reset()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root = New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "bubblechart") {
		t.Error("bash completion does not mention the command name")
	}
}

func TestLegendOrder(t *testing.T) {
	l := layout.Build([]intent.Intent{
		{ID: "1", Name: "a", Domain: "small-talk", Value: 10},
		{ID: "2", Name: "b", Domain: "banking", Value: 20},
		{ID: "3", Name: "c", Domain: "small-talk", Value: 5},
	}, 300, 200, layout.Options{Policy: layout.PolicyGrid})

	entries := legend(l, styles.NewPalette())
	if len(entries) != 2 {
		t.Fatalf("legend has %d entries, want 2", len(entries))
	}
	if entries[0].color == entries[1].color {
		t.Error("domains share a colour")
	}
	if entries[0].color != styles.Category20c[0] {
		t.Errorf("first colour = %s, want %s", entries[0].color, styles.Category20c[0])
	}
}

func TestCacheDirResolution(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		name       string
		xdg        string
		configured string
		want       string
	}{
		{"home default", "", "", filepath.Join(home, ".cache", appName)},
		{"xdg cache home", "/tmp/xdg-cache", "", filepath.Join("/tmp/xdg-cache", appName)},
		{"config wins", "/tmp/xdg-cache", "/srv/bubbles", "/srv/bubbles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			c := newTestCLI(t)
			c.Config.Cache.Dir = tt.configured
			got, err := c.cacheDir()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("cacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
