// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/dawn-engine/dawn/lib/asset"
	"github.com/dawn-engine/dawn/lib/dac"
	"github.com/dawn-engine/dawn/lib/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	var asJSON bool

	flagSet := pflag.NewFlagSet("dawn-inspect", pflag.ContinueOnError)
	flagSet.BoolVar(&asJSON, "json", false, "emit machine-readable JSON")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("dawn-inspect %s\n", version.Info())
		return 0
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	args := flagSet.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: dawn-inspect [--json] <container.dac>")
		return 2
	}

	if err := inspect(args[0], asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// summary is the JSON projection of a container's metadata.
type summary struct {
	Path     string        `json:"path"`
	Manifest *dac.Manifest `json:"manifest"`
	Assets   []assetRow    `json:"assets"`
}

type assetRow struct {
	ID           asset.ID   `json:"id"`
	Type         asset.Type `json:"type"`
	Offset       uint32     `json:"offset"`
	Length       uint32     `json:"length"`
	Compression  string     `json:"compression"`
	Dependencies []asset.ID `json:"dependencies,omitempty"`
}

func inspect(path string, asJSON bool) error {
	reader, err := dac.OpenFile(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	manifest, err := reader.Manifest()
	if err != nil {
		return err
	}
	toc, err := reader.TOC()
	if err != nil {
		return err
	}

	rows := make([]assetRow, 0, len(manifest.Headers))
	for _, header := range manifest.Headers {
		record, ok := toc[header.ID]
		if !ok {
			return fmt.Errorf("%s: asset %s in manifest but not in TOC", path, header.ID)
		}
		rows = append(rows, assetRow{
			ID:           header.ID,
			Type:         header.Type,
			Offset:       record.Offset,
			Length:       record.Length,
			Compression:  record.Compression.String(),
			Dependencies: header.Dependencies,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Offset < rows[j].Offset })

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary{Path: path, Manifest: manifest, Assets: rows})
	}

	fmt.Printf("%s\n", path)
	fmt.Printf("  tool:     %s %s\n", manifest.Tool, manifest.ToolVersion)
	fmt.Printf("  created:  %s\n", manifest.Created.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("  checksum: %s, read mode: %s\n", manifest.ChecksumAlgorithm, manifest.ReadMode)
	if manifest.Author != "" {
		fmt.Printf("  author:   %s\n", manifest.Author)
	}
	if manifest.Version != "" {
		fmt.Printf("  version:  %s\n", manifest.Version)
	}
	if manifest.License != "" {
		fmt.Printf("  license:  %s\n", manifest.License)
	}
	fmt.Printf("  assets:   %d\n\n", len(rows))

	writer := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tTYPE\tOFFSET\tLENGTH\tCOMPRESSION\tDEPENDENCIES")
	for _, row := range rows {
		deps := ""
		for i, dep := range row.Dependencies {
			if i > 0 {
				deps += ", "
			}
			deps += string(dep)
		}
		fmt.Fprintf(writer, "%s\t%s\t%d\t%d\t%s\t%s\n",
			row.ID, row.Type, row.Offset, row.Length, row.Compression, deps)
	}
	return writer.Flush()
}
