package toolchain

import (
	"context"
	"fmt"

	"github.com/mcphackers/mcpctl/engine/executor"
)

// recordVersion is the SETUP builtin for projects without a setup command.
// It only announces the version; the executor records it once the run
// succeeds.
func recordVersion(_ context.Context, _ *Toolchain, step Step, progress executor.ProgressFunc) error {
	if step.Job.Version == nil {
		return fmt.Errorf("no version to set up")
	}
	progress(executor.Message(step.Side, fmt.Sprintf("Setting up %s", step.Job.Version.Name())))
	progress(executor.Percent(step.Side, 100))
	return nil
}
