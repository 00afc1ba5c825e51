// Copyright © 2025 Glint contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/options.go
// Summary: TOML option files under the config root: scroll physics
//          (physics.toml) and renderer flags (renderer.toml). A missing
//          file yields the built-in defaults, not an error.

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/framegrace/glint/glint"
)

const (
	physicsFileName  = "physics.toml"
	rendererFileName = "renderer.toml"
)

// LoadScrollPhysics reads the scroll physics options from the config root.
func LoadScrollPhysics() (glint.ScrollPhysicsOptions, error) {
	root, err := configRoot()
	if err != nil {
		return glint.DefaultScrollPhysics(), err
	}
	return LoadScrollPhysicsFile(filepath.Join(root, physicsFileName))
}

// LoadScrollPhysicsFile reads scroll physics options from an explicit path.
func LoadScrollPhysicsFile(path string) (glint.ScrollPhysicsOptions, error) {
	opts := glint.DefaultScrollPhysics()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &opts); err != nil {
		return glint.DefaultScrollPhysics(), fmt.Errorf("parse %s: %w", path, err)
	}
	return opts, nil
}

// LoadRendererOptions reads the renderer options from the config root.
func LoadRendererOptions() (glint.RendererOptions, error) {
	root, err := configRoot()
	if err != nil {
		return defaultRendererOptions(), err
	}
	return LoadRendererOptionsFile(filepath.Join(root, rendererFileName))
}

// LoadRendererOptionsFile reads renderer options from an explicit path.
func LoadRendererOptionsFile(path string) (glint.RendererOptions, error) {
	opts := defaultRendererOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, nil
		}
		return opts, fmt.Errorf("read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &opts); err != nil {
		return defaultRendererOptions(), fmt.Errorf("parse %s: %w", path, err)
	}
	return opts, nil
}

func defaultRendererOptions() glint.RendererOptions {
	return glint.RendererOptions{Vsync: true}
}
