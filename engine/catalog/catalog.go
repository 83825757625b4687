// Package catalog lists the target versions that can be set up.
//
// A catalog is a JSON manifest, either an object with a "versions" array or
// a bare array, whose entries carry id, name, type, releaseTime and changelog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/pkg/logger"
	"github.com/tidwall/gjson"
)

var (
	ErrVersionNotFound = errors.New("version not found in catalog")
	ErrNoSource        = errors.New("no version catalog configured")
)

// Source yields the raw manifest.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

type Catalog struct {
	src Source
}

func New(src Source) *Catalog {
	return &Catalog{src: src}
}

// List fetches and parses the manifest. Versions are returned newest first
// when every entry has a release time, otherwise in manifest order.
func (c *Catalog) List(ctx context.Context) ([]*project.Version, error) {
	if c == nil || c.src == nil {
		return nil, ErrNoSource
	}
	data, err := c.src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog from %s: %w", c.src, err)
	}
	versions, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog from %s: %w", c.src, err)
	}
	logger.FromContext(ctx).Debug("Catalog loaded", "source", c.src.String(), "versions", len(versions))
	return versions, nil
}

// Lookup returns the catalog entry with the given id.
func (c *Catalog) Lookup(ctx context.Context, id string) (*project.Version, error) {
	versions, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
}

// Parse decodes a manifest.
func Parse(data []byte) ([]*project.Version, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	entries := root
	if !root.IsArray() {
		entries = root.Get("versions")
		if !entries.IsArray() {
			return nil, errors.New(`manifest has no "versions" array`)
		}
	}
	var (
		versions []*project.Version
		parseErr error
	)
	seen := make(map[string]struct{})
	entries.ForEach(func(_, entry gjson.Result) bool {
		v, err := parseEntry(entry)
		if err != nil {
			parseErr = fmt.Errorf("entry %d: %w", len(versions), err)
			return false
		}
		if _, dup := seen[v.ID]; dup {
			parseErr = fmt.Errorf("duplicate version id %q", v.ID)
			return false
		}
		seen[v.ID] = struct{}{}
		versions = append(versions, v)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if allDated(versions) {
		sort.SliceStable(versions, func(i, j int) bool {
			return versions[i].ReleaseTime.After(*versions[j].ReleaseTime)
		})
	}
	return versions, nil
}

func allDated(versions []*project.Version) bool {
	for _, v := range versions {
		if v.ReleaseTime == nil {
			return false
		}
	}
	return true
}

func parseEntry(entry gjson.Result) (*project.Version, error) {
	if entry.Type == gjson.String {
		if entry.Str == "" {
			return nil, errors.New("empty version id")
		}
		return &project.Version{ID: entry.Str}, nil
	}
	if !entry.IsObject() {
		return nil, fmt.Errorf("unexpected %s", entry.Type)
	}
	id := entry.Get("id").String()
	if id == "" {
		return nil, errors.New("missing id")
	}
	v := &project.Version{
		ID:          id,
		DisplayName: entry.Get("name").String(),
		Changelog:   entry.Get("changelog").String(),
		ReleaseType: entry.Get("type").String(),
	}
	if rt := entry.Get("releaseTime"); rt.Exists() && rt.String() != "" {
		t, err := time.Parse(time.RFC3339, rt.String())
		if err != nil {
			return nil, fmt.Errorf("version %s: invalid releaseTime: %w", id, err)
		}
		v.ReleaseTime = &t
	}
	return v, nil
}
