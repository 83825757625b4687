package project

import (
	"fmt"
	"time"
)

// Version describes an installable target version. Versions are compared by ID.
type Version struct {
	ID          string     `json:"id"                    validate:"required"`
	DisplayName string     `json:"name,omitempty"`
	Changelog   string     `json:"changelog,omitempty"`
	ReleaseType string     `json:"type,omitempty"`
	ReleaseTime *time.Time `json:"releaseTime,omitempty"`
}

// Name returns the display name, falling back to the ID.
func (v *Version) Name() string {
	if v == nil {
		return ""
	}
	if v.DisplayName != "" {
		return v.DisplayName
	}
	return v.ID
}

func (v *Version) String() string {
	if v == nil {
		return "<none>"
	}
	if v.ReleaseType != "" {
		return fmt.Sprintf("%s (%s)", v.Name(), v.ReleaseType)
	}
	return v.Name()
}

// SameVersion reports whether a and b identify the same version. Two nil
// versions are equal.
func SameVersion(a, b *Version) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

// ID returns the identifier of v, or "" for nil.
func ID(v *Version) string {
	if v == nil {
		return ""
	}
	return v.ID
}
