package task

import "fmt"

// Descriptor is the process-wide definition of a mode. Descriptors are never
// mutated after package initialization.
type Descriptor struct {
	Mode Mode
	// SideScoped modes are evaluated per concrete side; SETUP is not.
	SideScoped bool
	// Requires is evaluated against one side's flags. Nil means no prerequisite.
	Requires func(f Flags) bool
}

func hasSources(f Flags) bool      { return f.Sources }
func hasRecompiled(f Flags) bool   { return f.Recompiled }
func hasReobfuscated(f Flags) bool { return f.Reobfuscated }

var descriptors = map[Mode]Descriptor{
	ModeDecompile:       {Mode: ModeDecompile, SideScoped: true},
	ModeRecompile:       {Mode: ModeRecompile, SideScoped: true, Requires: hasSources},
	ModeReobfuscate:     {Mode: ModeReobfuscate, SideScoped: true, Requires: hasRecompiled},
	ModeBuild:           {Mode: ModeBuild, SideScoped: true, Requires: hasReobfuscated},
	ModeUpdateChecksums: {Mode: ModeUpdateChecksums, SideScoped: true, Requires: hasSources},
	ModeCreatePatch:     {Mode: ModeCreatePatch, SideScoped: true, Requires: hasSources},
	ModeBackupSource:    {Mode: ModeBackupSource, SideScoped: true, Requires: hasSources},
	ModeSetup:           {Mode: ModeSetup},
}

// Lookup returns the descriptor for mode.
func Lookup(mode Mode) (Descriptor, bool) {
	d, ok := descriptors[mode]
	return d, ok
}

// RegistryOptions tunes the eligibility rules.
type RegistryOptions struct {
	// AllowRedecompile keeps DECOMPILE available after sources exist.
	AllowRedecompile bool
}

// Registry evaluates mode eligibility. It holds no state of its own; every
// call evaluates the supplied view afresh.
type Registry struct {
	opts RegistryOptions
}

// NewRegistry creates a registry with the given options.
func NewRegistry(opts RegistryOptions) *Registry {
	return &Registry{opts: opts}
}

// DefaultRegistry permits re-decompilation.
func DefaultRegistry() *Registry {
	return NewRegistry(RegistryOptions{AllowRedecompile: true})
}

// IsAvailable reports whether mode may run for side given the view.
// Nothing is available while a run is active.
func (r *Registry) IsAvailable(view View, mode Mode, side Side) bool {
	if view.Active() {
		return false
	}
	_, ok := r.Targets(view, mode, side)
	return ok
}

// Targets resolves the concrete sides a run of mode would act on, ignoring the
// activation gate. SETUP resolves to no concrete side. The boolean is false
// when the mode is not eligible.
func (r *Registry) Targets(view View, mode Mode, side Side) ([]Side, bool) {
	d, ok := descriptors[mode]
	if !ok {
		return nil, false
	}
	if !d.SideScoped {
		return nil, side == SideAny
	}
	var targets []Side
	for _, s := range side.Expand() {
		if r.eligible(d, view.Flags(s)) {
			targets = append(targets, s)
		}
	}
	return targets, len(targets) > 0
}

func (r *Registry) eligible(d Descriptor, f Flags) bool {
	if d.Mode == ModeDecompile && !r.opts.AllowRedecompile && f.Sources {
		return false
	}
	if d.Requires == nil {
		return true
	}
	return d.Requires(f)
}

// Availability returns the enable state of every mode for side, for rendering
// controls.
func (r *Registry) Availability(view View, side Side) map[Mode]bool {
	out := make(map[Mode]bool, len(Modes))
	for _, m := range Modes {
		out[m] = r.IsAvailable(view, m, side)
	}
	return out
}

// Explain returns a short reason why mode is not available, or "" if it is.
func (r *Registry) Explain(view View, mode Mode, side Side) string {
	if view.Active() {
		return "another task is running"
	}
	d, ok := descriptors[mode]
	if !ok {
		return fmt.Sprintf("unknown mode %s", mode)
	}
	if _, ok := r.Targets(view, mode, side); ok {
		return ""
	}
	if !d.SideScoped {
		return fmt.Sprintf("%s only runs for side %s", mode, SideAny)
	}
	switch mode {
	case ModeDecompile:
		return "sources already decompiled"
	case ModeRecompile, ModeUpdateChecksums, ModeCreatePatch, ModeBackupSource:
		return fmt.Sprintf("no decompiled sources for side %s", side)
	case ModeReobfuscate:
		return fmt.Sprintf("side %s has not been recompiled", side)
	case ModeBuild:
		return fmt.Sprintf("side %s has not been reobfuscated", side)
	default:
		return "prerequisites not met"
	}
}
