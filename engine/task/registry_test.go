package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	flags  map[Side]Flags
	active bool
}

func (v fakeView) Flags(side Side) Flags { return v.flags[side] }
func (v fakeView) Active() bool          { return v.active }

func freshView() fakeView {
	return fakeView{flags: map[Side]Flags{}}
}

func TestRegistry_IsAvailable(t *testing.T) {
	t.Run("Should only offer decompile and setup on a fresh project", func(t *testing.T) {
		reg := DefaultRegistry()
		view := freshView()
		for _, side := range []Side{SideClient, SideServer, SideAny} {
			for _, mode := range Modes {
				expected := mode == ModeDecompile || (mode == ModeSetup && side == SideAny)
				assert.Equal(t, expected, reg.IsAvailable(view, mode, side), "mode %s side %s", mode, side)
			}
		}
	})

	t.Run("Should follow stage prerequisites", func(t *testing.T) {
		reg := DefaultRegistry()
		testCases := []struct {
			name     string
			flags    Flags
			mode     Mode
			expected bool
		}{
			{"recompile needs sources", Flags{}, ModeRecompile, false},
			{"recompile with sources", Flags{Sources: true}, ModeRecompile, true},
			{"reobfuscate needs recompile", Flags{Sources: true}, ModeReobfuscate, false},
			{"reobfuscate after recompile", Flags{Sources: true, Recompiled: true}, ModeReobfuscate, true},
			{"build needs reobfuscate", Flags{Sources: true, Recompiled: true}, ModeBuild, false},
			{"build after reobfuscate", Flags{Reobfuscated: true}, ModeBuild, true},
			{"checksums with sources", Flags{Sources: true}, ModeUpdateChecksums, true},
			{"patch with sources", Flags{Sources: true}, ModeCreatePatch, true},
			{"backup with sources", Flags{Sources: true}, ModeBackupSource, true},
			{"backup without sources", Flags{Recompiled: true}, ModeBackupSource, false},
			{"decompile is re-entrant", Flags{Sources: true, Recompiled: true}, ModeDecompile, true},
		}
		for _, tc := range testCases {
			view := fakeView{flags: map[Side]Flags{SideClient: tc.flags}}
			assert.Equal(t, tc.expected, reg.IsAvailable(view, tc.mode, SideClient), tc.name)
		}
	})

	t.Run("Should refuse everything while a run is active", func(t *testing.T) {
		reg := DefaultRegistry()
		all := Flags{Sources: true, Recompiled: true, Reobfuscated: true, Built: true}
		view := fakeView{flags: map[Side]Flags{SideClient: all, SideServer: all}, active: true}
		for _, mode := range Modes {
			assert.False(t, reg.IsAvailable(view, mode, SideAny), "mode %s", mode)
			assert.False(t, reg.IsAvailable(view, mode, SideClient), "mode %s", mode)
		}
	})

	t.Run("Should restrict setup to side any", func(t *testing.T) {
		reg := DefaultRegistry()
		assert.True(t, reg.IsAvailable(freshView(), ModeSetup, SideAny))
		assert.False(t, reg.IsAvailable(freshView(), ModeSetup, SideClient))
		assert.False(t, reg.IsAvailable(freshView(), ModeSetup, SideServer))
	})

	t.Run("Should block re-decompile when disabled", func(t *testing.T) {
		reg := NewRegistry(RegistryOptions{AllowRedecompile: false})
		view := fakeView{flags: map[Side]Flags{SideClient: {Sources: true}}}
		assert.False(t, reg.IsAvailable(view, ModeDecompile, SideClient))
		assert.True(t, reg.IsAvailable(view, ModeDecompile, SideServer))
		assert.Equal(t, "sources already decompiled", reg.Explain(view, ModeDecompile, SideClient))
	})
}

func TestRegistry_Targets(t *testing.T) {
	t.Run("Should resolve side any to the eligible concrete sides", func(t *testing.T) {
		reg := DefaultRegistry()
		view := fakeView{flags: map[Side]Flags{SideServer: {Sources: true}}}
		targets, ok := reg.Targets(view, ModeRecompile, SideAny)
		require.True(t, ok)
		assert.Equal(t, []Side{SideServer}, targets)
	})

	t.Run("Should resolve setup to no concrete side", func(t *testing.T) {
		targets, ok := DefaultRegistry().Targets(freshView(), ModeSetup, SideAny)
		assert.True(t, ok)
		assert.Empty(t, targets)
	})

	t.Run("Should reject unknown modes", func(t *testing.T) {
		_, ok := DefaultRegistry().Targets(freshView(), Mode("NOPE"), SideAny)
		assert.False(t, ok)
	})
}

func TestRegistry_Availability(t *testing.T) {
	t.Run("Should report every mode", func(t *testing.T) {
		view := fakeView{flags: map[Side]Flags{SideClient: {Sources: true}}}
		got := DefaultRegistry().Availability(view, SideClient)
		assert.Len(t, got, len(Modes))
		assert.True(t, got[ModeRecompile])
		assert.False(t, got[ModeBuild])
	})
}

func TestMode_Parse(t *testing.T) {
	t.Run("Should accept identities and command names", func(t *testing.T) {
		for input, expected := range map[string]Mode{
			"DECOMPILE":        ModeDecompile,
			"update-checksums": ModeUpdateChecksums,
			"backup_source":    ModeBackupSource,
			"update_md5":       ModeUpdateChecksums,
			" Build ":          ModeBuild,
		} {
			got, err := ParseMode(input)
			require.NoError(t, err, input)
			assert.Equal(t, expected, got)
		}
	})

	t.Run("Should reject unknown names", func(t *testing.T) {
		_, err := ParseMode("launch")
		assert.Error(t, err)
	})

	t.Run("Should advance only the stage's own flag", func(t *testing.T) {
		assert.Equal(t, Flags{Sources: true}, ModeDecompile.Advance(Flags{}))
		assert.Equal(t, Flags{Sources: true, Recompiled: true}, ModeRecompile.Advance(Flags{Sources: true}))
		assert.Equal(t, Flags{Sources: true}, ModeBackupSource.Advance(Flags{Sources: true}))
		assert.Equal(t, Flags{}, ModeSetup.Advance(Flags{}))
	})
}

func TestSide_Parse(t *testing.T) {
	t.Run("Should parse known sides", func(t *testing.T) {
		for input, expected := range map[string]Side{"client": SideClient, "SERVER": SideServer, "": SideAny, "both": SideAny} {
			got, err := ParseSide(input)
			require.NoError(t, err)
			assert.Equal(t, expected, got)
		}
		_, err := ParseSide("left")
		assert.Error(t, err)
	})

	t.Run("Should expand any into both concrete sides", func(t *testing.T) {
		assert.Equal(t, []Side{SideClient, SideServer}, SideAny.Expand())
		assert.Equal(t, []Side{SideServer}, SideServer.Expand())
	})
}
