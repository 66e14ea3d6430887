// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package assethub

import (
	"fmt"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/dac"
)

// RawAsset is one asset as imported from a container: the manifest
// header plus the serialized, already-decompressed IR bytes. Decoding
// into typed IR is deferred to the hub's Read tasks.
type RawAsset struct {
	ID     asset.ID
	Header asset.Header
	IR     []byte
}

// ReadContainer bulk-imports a container file. This is the surface
// non-core engine code uses to feed a Hub; everything past it speaks
// registry states and queries, not files.
func ReadContainer(path string) (map[asset.ID]RawAsset, error) {
	reader, err := dac.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	manifest, err := reader.Manifest()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	assets := make(map[asset.ID]RawAsset, len(manifest.Headers))
	for _, header := range manifest.Headers {
		raw, _, err := reader.ReadRaw(header.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		assets[header.ID] = RawAsset{ID: header.ID, Header: header, IR: raw}
	}
	return assets, nil
}
