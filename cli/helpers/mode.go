package helpers

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mcphackers/mcpctl/pkg/config"
)

// Mode selects how a command talks to the user.
type Mode string

const (
	ModeJSON Mode = "json"
	ModeTUI  Mode = "tui"
)

// Environment abstracts the process environment for mode detection.
type Environment struct {
	Getenv         func(string) string
	StdinTerminal  bool
	StdoutTerminal bool
}

// ProcessEnvironment inspects the running process.
func ProcessEnvironment() Environment {
	return Environment{
		Getenv:         os.Getenv,
		StdinTerminal:  isTerminal(os.Stdin),
		StdoutTerminal: isTerminal(os.Stdout),
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var ciVars = []string{
	"CI",
	"JENKINS_HOME",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"TRAVIS",
	"BUILDKITE",
	"DRONE",
	"TF_BUILD",
	"TEAMCITY_VERSION",
	"BUILD_NUMBER",
	"CONTINUOUS_INTEGRATION",
}

func (e Environment) runningInCI() bool {
	for _, v := range ciVars {
		if e.Getenv(v) != "" {
			return true
		}
	}
	return false
}

func (e Environment) dumbTerminal() bool {
	term := e.Getenv("TERM")
	return term == "" || term == "dumb"
}

// Interactive reports whether questions can be asked on the terminal.
func (e Environment) Interactive() bool {
	return e.StdinTerminal && e.StdoutTerminal && !e.runningInCI() && !e.dumbTerminal()
}

// DetectMode resolves the configured format. "auto" picks TUI on an
// interactive terminal and JSON everywhere else.
func DetectMode(cfg *config.Config, env Environment) Mode {
	switch cfg.CLI.Format {
	case string(ModeJSON):
		return ModeJSON
	case string(ModeTUI):
		return ModeTUI
	}
	if env.Interactive() {
		return ModeTUI
	}
	return ModeJSON
}

// ShouldUseColor determines if colored output should be used
func ShouldUseColor(cfg *config.Config, env Environment) bool {
	if cfg.CLI.NoColor || env.Getenv("NO_COLOR") != "" {
		return false
	}
	return env.StdoutTerminal && !env.runningInCI() && !env.dumbTerminal()
}
