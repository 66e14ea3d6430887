// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package dacgen

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/dawn-engine/dawn/lib/checksum"
	"github.com/dawn-engine/dawn/lib/codec"
	"github.com/dawn-engine/dawn/lib/dac"
)

// Cache entries are zstd-compressed CBOR. The entry compression is a
// cache-internal detail, independent of the per-asset brotli settings
// recorded inside the stored binaries.

// zstdEncoder and zstdDecoder are reused across calls. Both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("dacgen: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("dacgen: zstd decoder initialization failed: " + err.Error())
	}
}

// Cache is the content-addressed build cache: one file per converted
// definition, named by the hex deep hash of the build configuration
// and the definition's full input closure. A hit skips conversion,
// serialization, and compression in one step.
//
// The cache is flat, append-only, and tolerant: a missing, truncated,
// or otherwise undecodable entry is a miss, never an error. Entries
// are written to a temporary file and renamed into place, so
// concurrent builds sharing a cache directory see only complete
// entries.
type Cache struct {
	dir      string
	config   WriteConfig
	resolver *Resolver
	logger   *slog.Logger
}

// NewCache returns a cache rooted at config.CacheDir. The directory
// is created lazily on first insert.
func NewCache(config WriteConfig, resolver *Resolver, logger *slog.Logger) *Cache {
	return &Cache{
		dir:      config.CacheDir,
		config:   config,
		resolver: resolver,
		logger:   logger,
	}
}

// Key computes the deep hash naming file's cache entry. The hash
// covers the declared build configuration fields and the definition's
// content closure; it never covers the cache directory, the source
// directory location, or the definition file's own path, so the same
// inputs key identically on any machine.
func (c *Cache) Key(file *UserFile) (checksum.Checksum, error) {
	hasher, err := NewDeepHasher(c.config.ChecksumAlgorithm)
	if err != nil {
		return checksum.Checksum{}, err
	}

	c.config.deepHash(hasher)
	if err := file.deepHash(hasher, c.resolver); err != nil {
		return checksum.Checksum{}, fmt.Errorf("hashing %s: %w", file.Path, err)
	}
	return hasher.Sum(), nil
}

// Get returns the cached binaries for file, or false on a miss. Any
// failure reading or decoding the entry degrades to a miss.
func (c *Cache) Get(file *UserFile) ([]dac.BinaryAsset, bool) {
	key, err := c.Key(file)
	if err != nil {
		c.logger.Debug("cache key failed", "path", file.Path, "error", err)
		return nil, false
	}

	entryPath := filepath.Join(c.dir, key.String())
	data, err := os.ReadFile(entryPath)
	if err != nil {
		c.logger.Debug("cache miss", "path", file.Path, "key", key)
		return nil, false
	}

	plain, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		c.logger.Debug("cache entry undecodable", "path", file.Path, "key", key, "error", err)
		return nil, false
	}

	var binaries []dac.BinaryAsset
	if err := codec.Unmarshal(plain, &binaries); err != nil {
		c.logger.Debug("cache entry corrupt", "path", file.Path, "key", key, "error", err)
		return nil, false
	}

	c.logger.Debug("cache hit", "path", file.Path, "key", key)
	return binaries, true
}

// Put stores the converted binaries for file.
func (c *Cache) Put(file *UserFile, binaries []dac.BinaryAsset) error {
	key, err := c.Key(file)
	if err != nil {
		return err
	}

	plain, err := codec.Marshal(binaries)
	if err != nil {
		return fmt.Errorf("encoding cache entry for %s: %w", file.Path, err)
	}
	compressed := zstdEncoder.EncodeAll(plain, nil)

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	temp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	if _, err := temp.Write(compressed); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return fmt.Errorf("closing cache entry: %w", err)
	}

	entryPath := filepath.Join(c.dir, key.String())
	if err := os.Rename(temp.Name(), entryPath); err != nil {
		os.Remove(temp.Name())
		return fmt.Errorf("publishing cache entry: %w", err)
	}

	c.logger.Debug("cache insert", "path", file.Path, "key", key)
	return nil
}
