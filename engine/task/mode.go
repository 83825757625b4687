package task

import (
	"fmt"
	"strings"
)

// -----------------------------------------------------------------------------
// Modes
// -----------------------------------------------------------------------------

type Mode string

const (
	ModeDecompile       Mode = "DECOMPILE"
	ModeRecompile       Mode = "RECOMPILE"
	ModeReobfuscate     Mode = "REOBFUSCATE"
	ModeBuild           Mode = "BUILD"
	ModeUpdateChecksums Mode = "UPDATE_CHECKSUMS"
	ModeCreatePatch     Mode = "CREATE_PATCH"
	ModeBackupSource    Mode = "BACKUP_SOURCE"
	ModeSetup           Mode = "SETUP"
)

// Modes lists every mode in pipeline order followed by maintenance modes.
var Modes = []Mode{
	ModeDecompile,
	ModeRecompile,
	ModeReobfuscate,
	ModeBuild,
	ModeUpdateChecksums,
	ModeCreatePatch,
	ModeBackupSource,
	ModeSetup,
}

func (m Mode) String() string {
	return string(m)
}

// CommandName is the kebab-case name used on the command line and in config keys.
func (m Mode) CommandName() string {
	return strings.ReplaceAll(strings.ToLower(string(m)), "_", "-")
}

// IsStage reports whether the mode advances the pipeline.
func (m Mode) IsStage() bool {
	switch m {
	case ModeDecompile, ModeRecompile, ModeReobfuscate, ModeBuild:
		return true
	default:
		return false
	}
}

// Advance returns flags with the mode's own completion flag set.
// Maintenance modes and SETUP leave the flags unchanged.
func (m Mode) Advance(f Flags) Flags {
	switch m {
	case ModeDecompile:
		f.Sources = true
	case ModeRecompile:
		f.Recompiled = true
	case ModeReobfuscate:
		f.Reobfuscated = true
	case ModeBuild:
		f.Built = true
	}
	return f
}

// ParseMode accepts either the canonical identity (DECOMPILE) or the
// command name (update-checksums), case-insensitively.
func ParseMode(value string) (Mode, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), "-", "_"))
	switch normalized {
	case "UPDATE_MD5":
		return ModeUpdateChecksums, nil
	case "BACKUP_SRC":
		return ModeBackupSource, nil
	}
	for _, m := range Modes {
		if string(m) == normalized {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown task mode %q", value)
}

// -----------------------------------------------------------------------------
// Stage flags
// -----------------------------------------------------------------------------

// Flags records which stages have completed for one side of the project.
type Flags struct {
	Sources      bool `json:"sources"`
	Recompiled   bool `json:"recompiled"`
	Reobfuscated bool `json:"reobfuscated"`
	Built        bool `json:"built"`
}

// View is the read-only state the eligibility rules are evaluated against.
type View interface {
	Flags(side Side) Flags
	Active() bool
}

// -----------------------------------------------------------------------------
// Parameters
// -----------------------------------------------------------------------------

type Param string

const (
	ParamSetupVersion Param = "setup_version"
	ParamSide         Param = "side"
)

// Params carries per-run parameters handed to the toolchain.
type Params map[Param]string

// Clone returns a shallow copy that is safe to hand to another goroutine.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// AsMap exposes the params with string keys for template rendering.
func (p Params) AsMap() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[string(k)] = v
	}
	return out
}
