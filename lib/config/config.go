// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads build configuration for the dawn tools.
//
// Configuration comes from a single YAML file specified by:
//   - the DAWN_CONFIG environment variable, or
//   - the --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This keeps builds
// deterministic and auditable with no hidden overrides. The file may
// contain named profiles (debug, shipping, CI) that override base
// values when selected with --profile.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dawn-engine/dawn/lib/checksum"
	"github.com/dawn-engine/dawn/lib/compress"
	"github.com/dawn-engine/dawn/lib/dac"
	"github.com/dawn-engine/dawn/lib/dacgen"
)

// EnvVar names the environment variable consulted when no --config
// flag is given.
const EnvVar = "DAWN_CONFIG"

// Build is the on-disk build configuration for one container.
type Build struct {
	// Source is the asset definition directory.
	Source string `yaml:"source"`

	// Output is the container file to write.
	Output string `yaml:"output"`

	// ReadMode is "flat" or "recursive". Default: recursive.
	ReadMode string `yaml:"read_mode"`

	// Checksum names the asset checksum algorithm. Default: blake3.
	Checksum string `yaml:"checksum"`

	// Compression names the payload compression level: none, fast,
	// default, or best. Default: default.
	Compression string `yaml:"compression"`

	// CacheDir enables the build cache when non-empty. Relative
	// paths resolve against the config file's directory.
	CacheDir string `yaml:"cache_dir"`

	// ContinueOnError collects conversion failures across the whole
	// source tree instead of stopping at the first.
	ContinueOnError bool `yaml:"continue_on_error"`

	// Provenance copied into the container manifest.
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
	License     string `yaml:"license"`

	// Profiles are named override sets selected with --profile.
	Profiles map[string]*Overrides `yaml:"profiles,omitempty"`
}

// Overrides contains the fields a profile may override.
type Overrides struct {
	Output          string `yaml:"output,omitempty"`
	ReadMode        string `yaml:"read_mode,omitempty"`
	Checksum        string `yaml:"checksum,omitempty"`
	Compression     string `yaml:"compression,omitempty"`
	CacheDir        string `yaml:"cache_dir,omitempty"`
	ContinueOnError *bool  `yaml:"continue_on_error,omitempty"`
	Version         string `yaml:"version,omitempty"`
}

// Path resolves the config file location from the flag value or the
// environment. An empty result is an error: there is no default
// location.
func Path(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env, nil
	}
	return "", errors.New("no configuration: set --config or " + EnvVar)
}

// Load reads and parses the build configuration at path. Relative
// Source, Output, and CacheDir paths are resolved against the config
// file's directory, so a build invoked from anywhere sees the same
// files.
func Load(path string) (*Build, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var build Build
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&build); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	build.Source = resolve(base, build.Source)
	build.Output = resolve(base, build.Output)
	build.CacheDir = resolve(base, build.CacheDir)
	for _, profile := range build.Profiles {
		if profile != nil {
			profile.Output = resolve(base, profile.Output)
			profile.CacheDir = resolve(base, profile.CacheDir)
		}
	}

	if build.Source == "" {
		return nil, fmt.Errorf("%s: source directory is required", path)
	}
	if build.Output == "" {
		return nil, fmt.Errorf("%s: output path is required", path)
	}
	return &build, nil
}

// Apply merges the named profile's overrides into the base values.
// An empty name is the base configuration; an unknown name is an
// error, never a silent no-op.
func (b *Build) Apply(name string) error {
	if name == "" {
		return nil
	}
	profile, ok := b.Profiles[name]
	if !ok {
		return fmt.Errorf("unknown profile %q", name)
	}
	if profile == nil {
		return nil
	}
	if profile.Output != "" {
		b.Output = profile.Output
	}
	if profile.ReadMode != "" {
		b.ReadMode = profile.ReadMode
	}
	if profile.Checksum != "" {
		b.Checksum = profile.Checksum
	}
	if profile.Compression != "" {
		b.Compression = profile.Compression
	}
	if profile.CacheDir != "" {
		b.CacheDir = profile.CacheDir
	}
	if profile.ContinueOnError != nil {
		b.ContinueOnError = *profile.ContinueOnError
	}
	if profile.Version != "" {
		b.Version = profile.Version
	}
	return nil
}

// WriteConfig converts the loaded configuration into the generator's
// form, applying defaults and validating the enum fields.
func (b *Build) WriteConfig() (dacgen.WriteConfig, error) {
	readMode := dac.ReadRecursive
	if b.ReadMode != "" {
		parsed, err := dac.ParseReadMode(b.ReadMode)
		if err != nil {
			return dacgen.WriteConfig{}, err
		}
		readMode = parsed
	}

	algorithm := checksum.Blake3
	if b.Checksum != "" {
		parsed, err := checksum.ParseAlgorithm(b.Checksum)
		if err != nil {
			return dacgen.WriteConfig{}, err
		}
		algorithm = parsed
	}

	level := compress.LevelDefault
	if b.Compression != "" {
		parsed, err := compress.ParseLevel(b.Compression)
		if err != nil {
			return dacgen.WriteConfig{}, err
		}
		level = parsed
	}

	return dacgen.WriteConfig{
		ReadMode:          readMode,
		ChecksumAlgorithm: algorithm,
		CompressionLevel:  level,
		CacheDir:          b.CacheDir,
		Author:            b.Author,
		Description:       b.Description,
		Version:           b.Version,
		License:           b.License,
		ContinueOnError:   b.ContinueOnError,
	}, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
