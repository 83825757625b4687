package project

import (
	"fmt"

	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/spf13/afero"
)

// SidePaths locates the outputs of each stage for one side, relative to the
// working directory.
type SidePaths struct {
	Sources string `koanf:"sources" json:"sources" yaml:"sources" validate:"required"`
	Bin     string `koanf:"bin"     json:"bin"     yaml:"bin"     validate:"required"`
	Reobf   string `koanf:"reobf"   json:"reobf"   yaml:"reobf"   validate:"required"`
	Build   string `koanf:"build"   json:"build"   yaml:"build"   validate:"required"`
}

// Layout holds the stage output locations of both sides.
type Layout struct {
	Client SidePaths `koanf:"client" json:"client" yaml:"client"`
	Server SidePaths `koanf:"server" json:"server" yaml:"server"`
}

// DefaultLayout mirrors the conventional project tree.
func DefaultLayout() Layout {
	return Layout{
		Client: SidePaths{
			Sources: "src/minecraft",
			Bin:     "bin/minecraft",
			Reobf:   "reobf/minecraft",
			Build:   "build/minecraft",
		},
		Server: SidePaths{
			Sources: "src/minecraft_server",
			Bin:     "bin/minecraft_server",
			Reobf:   "reobf/minecraft_server",
			Build:   "build/minecraft_server",
		},
	}
}

// For returns the paths of a concrete side.
func (l Layout) For(side task.Side) SidePaths {
	if side == task.SideServer {
		return l.Server
	}
	return l.Client
}

// Probe derives the initial stage flags from what exists on disk, so that a
// fresh process picks up the results of earlier runs.
func Probe(fs afero.Fs, layout Layout) (map[task.Side]task.Flags, error) {
	out := make(map[task.Side]task.Flags, len(task.ConcreteSides))
	for _, side := range task.ConcreteSides {
		paths := layout.For(side)
		var flags task.Flags
		var err error
		if flags.Sources, err = populated(fs, paths.Sources); err != nil {
			return nil, err
		}
		if flags.Recompiled, err = populated(fs, paths.Bin); err != nil {
			return nil, err
		}
		if flags.Reobfuscated, err = populated(fs, paths.Reobf); err != nil {
			return nil, err
		}
		if flags.Built, err = populated(fs, paths.Build); err != nil {
			return nil, err
		}
		out[side] = flags
	}
	return out, nil
}

// populated reports whether path is a non-empty directory or a regular file.
func populated(fs afero.Fs, path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !exists {
		return false, nil
	}
	isDir, err := afero.IsDir(fs, path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !isDir {
		return true, nil
	}
	empty, err := afero.IsEmpty(fs, path)
	if err != nil {
		return false, fmt.Errorf("failed to list %s: %w", path, err)
	}
	return !empty, nil
}
