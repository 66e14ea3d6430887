// Copyright 2026 The Dawn Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/dawn-engine/dawn/lib/clock"
	"github.com/dawn-engine/dawn/lib/config"
	"github.com/dawn-engine/dawn/lib/dacgen"
	"github.com/dawn-engine/dawn/lib/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		profile    string
		source     string
		output     string
		cacheDir   string
		verbose    bool
	)

	flagSet := pflag.NewFlagSet("dawn-pack", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "build configuration file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&profile, "profile", "", "configuration profile to apply")
	flagSet.StringVar(&source, "source", "", "asset definition directory (overrides config)")
	flagSet.StringVar(&output, "output", "", "container file to write (overrides config)")
	flagSet.StringVar(&cacheDir, "cache-dir", "", "build cache directory (overrides config)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Handle --version before flag parsing to match other Dawn binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("dawn-pack %s\n", version.Info())
		return 0
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}
	if args := flagSet.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stderr, "error: unexpected argument: %s\n", args[0])
		return 2
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	build, code := loadBuild(configPath, profile, source, output, cacheDir)
	if code != 0 {
		return code
	}

	writeConfig, err := build.WriteConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	logger.Info("building container",
		"source", build.Source,
		"output", build.Output,
		"compression", writeConfig.CompressionLevel,
		"cache", writeConfig.CacheDir != "")

	generator := dacgen.New(writeConfig, clock.Real(), logger)
	if err := generator.GenerateFile(build.Source, build.Output); err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		return 1
	}
	logger.Info("container written", "path", build.Output)
	return 0
}

// loadBuild assembles the effective build settings: the config file
// when one is specified, with flag overrides applied on top. With no
// config file, --source and --output alone describe the build.
func loadBuild(configPath, profile, source, output, cacheDir string) (*config.Build, int) {
	var build *config.Build

	path, pathErr := config.Path(configPath)
	switch {
	case pathErr == nil:
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return nil, 2
		}
		if err := loaded.Apply(profile); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return nil, 2
		}
		build = loaded
	case source != "" && output != "":
		if profile != "" {
			fmt.Fprintln(os.Stderr, "error: --profile requires a configuration file")
			return nil, 2
		}
		build = &config.Build{}
	default:
		fmt.Fprintf(os.Stderr, "error: %v (or pass both --source and --output)\n", pathErr)
		return nil, 2
	}

	if source != "" {
		build.Source = source
	}
	if output != "" {
		build.Output = output
	}
	if cacheDir != "" {
		build.CacheDir = cacheDir
	}
	return build, 0
}
