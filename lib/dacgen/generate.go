// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package dacgen

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/asset/ir"
	"github.com/dawn-engine/dawn/lib/checksum"
	"github.com/dawn-engine/dawn/lib/clock"
	"github.com/dawn-engine/dawn/lib/compress"
	"github.com/dawn-engine/dawn/lib/dac"
	"github.com/dawn-engine/dawn/lib/version"
)

// toolName identifies the generator in container manifests.
const toolName = "dawn-pack"

// Sentinel errors for definition-set validation failures. Errors are
// wrapped with the offending IDs and paths.
var (
	ErrDuplicateID        = errors.New("dacgen: duplicate asset id")
	ErrMissingDependency  = errors.New("dacgen: missing dependency")
	ErrCircularDependency = errors.New("dacgen: circular dependency")
)

// WriteConfig holds everything that shapes a build's output. All
// fields except CacheDir and ContinueOnError participate in the deep
// hash, so changing them invalidates cached conversions.
type WriteConfig struct {
	// ReadMode selects flat (one directory level) or recursive
	// definition collection. Recorded in the manifest.
	ReadMode dac.ReadMode

	// ChecksumAlgorithm is used for asset checksums and cache keys.
	ChecksumAlgorithm checksum.Algorithm

	// CompressionLevel applies to every asset payload. Incompressible
	// payloads are stored raw regardless.
	CompressionLevel compress.Level

	// CacheDir, when non-empty, enables the build cache. The
	// location never affects output bytes.
	CacheDir string

	// Optional authoring provenance copied into the manifest.
	Author      string
	Description string
	Version     string
	License     string

	// ContinueOnError collects per-definition failures and reports
	// them together instead of stopping at the first one.
	ContinueOnError bool
}

func (c *WriteConfig) deepHash(d *DeepHasher) {
	d.Tag(byte(c.ReadMode))
	d.Tag(byte(c.ChecksumAlgorithm))
	d.Tag(byte(c.CompressionLevel))
	d.String(c.Author)
	d.String(c.Description)
	d.String(c.Version)
	d.String(c.License)
}

// Generator runs the offline build: scan a definition directory,
// convert (or fetch from cache), and write one container.
type Generator struct {
	config     WriteConfig
	converters map[asset.Type]Converter
	clock      clock.Clock
	logger     *slog.Logger
}

// New returns a generator with the default converters registered.
func New(config WriteConfig, clk clock.Clock, logger *slog.Logger) *Generator {
	return &Generator{
		config:     config,
		converters: defaultConverters(),
		clock:      clk,
		logger:     logger,
	}
}

// Register installs fn as the converter for asset type t, replacing
// the default.
func (g *Generator) Register(t asset.Type, fn Converter) {
	g.converters[t] = fn
}

// Generate builds a container from every definition under sourceDir
// and writes it to w.
func (g *Generator) Generate(sourceDir string, w io.Writer) error {
	paths, err := collectDefinitions(sourceDir, g.config.ReadMode)
	if err != nil {
		return err
	}
	g.logger.Info("collected definitions",
		"dir", sourceDir, "mode", g.config.ReadMode, "count", len(paths))

	resolver := &Resolver{Root: sourceDir}
	var cache *Cache
	if g.config.CacheDir != "" {
		cache = NewCache(g.config, resolver, g.logger)
	}

	var binaries []dac.BinaryAsset
	var failures []error
	for _, path := range paths {
		converted, err := g.buildOne(path, resolver, cache)
		if err != nil {
			if g.config.ContinueOnError {
				failures = append(failures, err)
				continue
			}
			return err
		}
		binaries = append(binaries, converted...)
	}
	if len(failures) > 0 {
		return errors.Join(failures...)
	}

	headers := make([]asset.Header, len(binaries))
	for i, binary := range binaries {
		headers[i] = binary.Header
	}
	if err := validateHeaders(headers); err != nil {
		return err
	}

	manifest := dac.Manifest{
		Author:            g.config.Author,
		Description:       g.config.Description,
		Version:           g.config.Version,
		License:           g.config.License,
		Tool:              toolName,
		ToolVersion:       version.Short(),
		Created:           g.clock.Now().UTC(),
		ReadMode:          g.config.ReadMode,
		ChecksumAlgorithm: g.config.ChecksumAlgorithm,
		Headers:           headers,
	}

	g.logger.Info("writing container", "assets", len(binaries))
	return dac.Write(w, manifest, binaries)
}

// GenerateFile is Generate writing to a file at outputPath.
func (g *Generator) GenerateFile(sourceDir, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	if err := g.Generate(sourceDir, out); err != nil {
		out.Close()
		os.Remove(outputPath)
		return err
	}
	return out.Close()
}

// buildOne converts a single definition file, consulting the cache
// when one is configured. Errors carry the definition path.
func (g *Generator) buildOne(path string, resolver *Resolver, cache *Cache) ([]dac.BinaryAsset, error) {
	file, err := ParseUserFile(path)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if cached, ok := cache.Get(file); ok {
			return cached, nil
		}
	}

	converter, ok := g.converters[file.Asset.Header.Type]
	if !ok {
		return nil, fmt.Errorf("%s: no converter for asset type %q", path, file.Asset.Header.Type)
	}
	partials, err := converter(file, resolver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	binaries := make([]dac.BinaryAsset, 0, len(partials))
	for _, partial := range partials {
		binary, err := g.encode(file, partial)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		binaries = append(binaries, binary)
	}

	if cache != nil {
		if err := cache.Put(file, binaries); err != nil {
			return nil, err
		}
	}
	return binaries, nil
}

// encode serializes one partial, checksums the payload, and applies
// container compression.
func (g *Generator) encode(file *UserFile, partial Partial) (dac.BinaryAsset, error) {
	serialized, err := ir.Marshal(partial.IR)
	if err != nil {
		return dac.BinaryAsset{}, fmt.Errorf("serializing %s: %w", partial.ID, err)
	}

	sum, err := checksum.Sum(serialized, g.config.ChecksumAlgorithm)
	if err != nil {
		return dac.BinaryAsset{}, err
	}

	dependencies := file.Asset.Header.Dependencies
	if material, ok := partial.IR.(*ir.Material); ok {
		dependencies = mergeIDs(dependencies, material.References())
	}
	if mesh, ok := partial.IR.(*ir.Mesh); ok && mesh.Material != "" {
		dependencies = mergeIDs(dependencies, []asset.ID{mesh.Material})
	}

	header := asset.Header{
		ID:           partial.ID,
		Tags:         file.Asset.Header.Tags,
		Type:         partial.IR.Kind(),
		Checksum:     sum,
		Dependencies: dependencies,
	}

	raw, mode, err := compress.Encode(serialized, g.config.CompressionLevel)
	if err != nil {
		return dac.BinaryAsset{}, fmt.Errorf("compressing %s: %w", partial.ID, err)
	}

	return dac.BinaryAsset{Header: header, Raw: raw, Compression: mode}, nil
}

// mergeIDs appends the extras not already present, preserving order.
func mergeIDs(ids []asset.ID, extras []asset.ID) []asset.ID {
	seen := make(map[asset.ID]bool, len(ids))
	merged := make([]asset.ID, 0, len(ids)+len(extras))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range extras {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}

// collectDefinitions lists definition files under dir. Flat mode
// reads one directory level; recursive mode walks the whole tree.
// Results are sorted so container layout is independent of directory
// iteration order.
func collectDefinitions(dir string, mode dac.ReadMode) ([]string, error) {
	var paths []string

	switch mode {
	case dac.ReadFlat:
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if definitionExtensions[filepath.Ext(entry.Name())] {
				paths = append(paths, filepath.Join(dir, entry.Name()))
			}
		}

	case dac.ReadRecursive:
		err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() && definitionExtensions[filepath.Ext(entry.Name())] {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", dir, err)
		}

	default:
		return nil, fmt.Errorf("unknown read mode %d", mode)
	}

	sort.Strings(paths)
	return paths, nil
}

// validateHeaders rejects duplicate IDs, references to absent assets,
// and reference cycles before anything is written.
func validateHeaders(headers []asset.Header) error {
	byID := make(map[asset.ID]*asset.Header, len(headers))
	for i := range headers {
		header := &headers[i]
		if _, exists := byID[header.ID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateID, header.ID)
		}
		byID[header.ID] = header
	}

	for _, header := range headers {
		for _, dep := range header.Dependencies {
			if _, ok := byID[dep]; !ok {
				return fmt.Errorf("%w: %s references %s", ErrMissingDependency, header.ID, dep)
			}
		}
	}

	// Depth-first walk with a three-color marking: assets on the
	// current path are gray, finished ones black. A gray revisit is
	// a cycle.
	const (
		white = iota
		gray
		black
	)
	colors := make(map[asset.ID]int, len(headers))

	var visit func(id asset.ID) error
	visit = func(id asset.ID) error {
		switch colors[id] {
		case gray:
			return fmt.Errorf("%w: involving %s", ErrCircularDependency, id)
		case black:
			return nil
		}
		colors[id] = gray
		for _, dep := range byID[id].Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		colors[id] = black
		return nil
	}

	for _, header := range headers {
		if err := visit(header.ID); err != nil {
			return err
		}
	}
	return nil
}
