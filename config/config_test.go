// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/config_test.go
// Summary: Round-trip and typed-getter tests for the config store and the
//          TOML option loaders.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/framegrace/glint/glint"
)

func TestReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glint.json")

	cfg := Config{
		"window": map[string]interface{}{
			"title":   "demo",
			"autotab": true,
		},
		"scroll": map[string]interface{}{
			"smooth": false,
		},
	}
	if err := writeConfig(path, cfg); err != nil {
		t.Fatalf("writeConfig: %v", err)
	}

	got, exists, err := readConfig(path)
	if err != nil {
		t.Fatalf("readConfig: %v", err)
	}
	if !exists {
		t.Fatal("readConfig reported the file missing")
	}
	if diff := cmp.Diff(Clone(cfg), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	_, exists, err := readConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if exists {
		t.Error("missing file reported as existing")
	}
}

func TestReadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glint.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, exists, err := readConfig(path)
	if err == nil {
		t.Error("malformed file should error")
	}
	if !exists {
		t.Error("malformed file should still report existing")
	}
}

func TestTypedGetters(t *testing.T) {
	cfg := Config{
		"scroll": map[string]interface{}{
			"smooth":   true,
			"friction": 0.85,
			"notches":  float64(3),
			"label":    "wheel",
		},
	}

	if got := cfg.GetBool("scroll", "smooth", false); !got {
		t.Error("GetBool returned false for a true value")
	}
	if got := cfg.GetBool("scroll", "missing", true); !got {
		t.Error("GetBool ignored the default")
	}
	if got := cfg.GetFloat("scroll", "friction", 0); got != 0.85 {
		t.Errorf("GetFloat = %v, want 0.85", got)
	}
	if got := cfg.GetInt("scroll", "notches", 0); got != 3 {
		t.Errorf("GetInt = %d, want 3", got)
	}
	if got := cfg.GetString("scroll", "label", ""); got != "wheel" {
		t.Errorf("GetString = %q, want %q", got, "wheel")
	}
	if got := cfg.GetString("nosuch", "label", "fallback"); got != "fallback" {
		t.Errorf("GetString on missing section = %q, want fallback", got)
	}
}

func TestRegisterDefaultsKeepsExisting(t *testing.T) {
	cfg := Config{
		"window": map[string]interface{}{
			"title": "custom",
		},
	}
	cfg.RegisterDefaults("window", Section{
		"title":   "glint",
		"autotab": true,
	})

	if got := cfg.GetString("window", "title", ""); got != "custom" {
		t.Errorf("RegisterDefaults overwrote title: %q", got)
	}
	if got := cfg.GetBool("window", "autotab", false); !got {
		t.Error("RegisterDefaults did not fill autotab")
	}
}

func TestCloneIsDeep(t *testing.T) {
	cfg := Config{
		"window": map[string]interface{}{"title": "a"},
	}
	cp := Clone(cfg)
	cp.Section("window")["title"] = "b"

	if got := cfg.GetString("window", "title", ""); got != "a" {
		t.Errorf("Clone shared section data, original title = %q", got)
	}
}

func TestLoadScrollPhysicsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "physics.toml")
	body := "friction = 0.8\nmin_velocity = 0.5\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadScrollPhysicsFile(path)
	if err != nil {
		t.Fatalf("LoadScrollPhysicsFile: %v", err)
	}
	if opts.Friction != 0.8 {
		t.Errorf("Friction = %v, want 0.8", opts.Friction)
	}
	if opts.MinVelocity != 0.5 {
		t.Errorf("MinVelocity = %v, want 0.5", opts.MinVelocity)
	}
	// unset keys keep the defaults
	if opts.MomentumInterval != 16*time.Millisecond {
		t.Errorf("MomentumInterval = %v, want 16ms", opts.MomentumInterval)
	}
}

func TestLoadScrollPhysicsMissingFile(t *testing.T) {
	opts, err := LoadScrollPhysicsFile(filepath.Join(t.TempDir(), "physics.toml"))
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if diff := cmp.Diff(glint.DefaultScrollPhysics(), opts); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRendererOptionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renderer.toml")
	if err := os.WriteFile(path, []byte("vsync = false\nsrgb = true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadRendererOptionsFile(path)
	if err != nil {
		t.Fatalf("LoadRendererOptionsFile: %v", err)
	}
	want := glint.RendererOptions{Vsync: false, Srgb: true}
	if diff := cmp.Diff(want, opts); diff != "" {
		t.Errorf("renderer options mismatch (-want +got):\n%s", diff)
	}
}
