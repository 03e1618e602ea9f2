package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"SHELF_LISTEN", "ADMIN_TOKEN", "SHELF_DATA_DIR", "SHELF_LOG_LEVEL", "SHELF_CACHE_KIND", "SHELF_CACHE_PATH", "WP_ROOT_URL", "FEEDBIN_USERNAME", "FEEDBIN_PASSWORD", "SHELF_FETCH_TIMEOUT", "SHELF_PUBLISH_GIT"} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":8080" || cfg.Cache.Kind != "memory" || cfg.Fetch.Timeout != 10*time.Second || !cfg.Fetch.ResolveHosts {
		t.Fatalf("defaults: %+v", cfg)
	}
	if cfg.PublishRepo() != cfg.DataDir {
		t.Fatalf("publish repo should default to data dir")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "shelf.yaml")
	doc := `listen: ":9000"
admin_token: from-file
data_dir: /srv/books
cache:
  kind: sqlite
  path: /tmp/c.db
fetch:
  timeout: 3s
wordpress:
  root_url: https://blog.example.com
publish:
  git: true
  repo: /srv/site
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ADMIN_TOKEN", "from-env")
	t.Setenv("FEEDBIN_USERNAME", "me")
	t.Setenv("SHELF_FETCH_TIMEOUT", "7s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9000" || cfg.DataDir != "/srv/books" || cfg.Cache.Kind != "sqlite" || cfg.Cache.Path != "/tmp/c.db" {
		t.Fatalf("file values: %+v", cfg)
	}
	if cfg.AdminToken != "from-env" || cfg.Feedbin.Username != "me" || cfg.Fetch.Timeout != 7*time.Second {
		t.Fatalf("env overrides: %+v", cfg)
	}
	if cfg.WordPress.RootURL != "https://blog.example.com" || !cfg.Publish.Git || cfg.PublishRepo() != "/srv/site" {
		t.Fatalf("nested: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("listen: [unclosed"), 0o644)
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected yaml error")
	}

	t.Setenv("SHELF_CACHE_KIND", "file")
	if _, err := Load(""); err == nil {
		t.Fatalf("file cache without path should fail")
	}
	t.Setenv("SHELF_CACHE_KIND", "redis")
	if _, err := Load(""); err == nil {
		t.Fatalf("unknown cache kind should fail")
	}
	t.Setenv("SHELF_CACHE_KIND", "")
	t.Setenv("SHELF_FETCH_TIMEOUT", "soon")
	if _, err := Load(""); err == nil {
		t.Fatalf("bad duration should fail")
	}
	t.Setenv("SHELF_FETCH_TIMEOUT", "")
	t.Setenv("SHELF_LOG_LEVEL", "chatty")
	if _, err := Load(""); err == nil {
		t.Fatalf("bad level should fail")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "": slog.LevelInfo, "WARN": slog.LevelWarn, "error": slog.LevelError}
	for in, want := range cases {
		if got, err := ParseLevel(in); err != nil || got != want {
			t.Errorf("%q: got %v err %v", in, got, err)
		}
	}
}
