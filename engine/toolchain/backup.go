package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/otiai10/copy"
)

const backupStampFormat = "20060102-150405"

// BackupPath returns where the sources of side are copied for a backup
// started at the given time.
func (tc *Toolchain) BackupPath(started time.Time, side task.Side) string {
	return filepath.Join(tc.resolve(tc.cfg.BackupDir), started.Format(backupStampFormat), side.String())
}

func (tc *Toolchain) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(tc.cfg.WorkDir, path)
}

func backupSources(ctx context.Context, tc *Toolchain, step Step, progress executor.ProgressFunc) error {
	side := step.Side
	src := tc.resolve(tc.cfg.Layout.For(side).Sources)
	info, err := tc.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("no sources to back up for %s: %w", side, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("sources for %s at %s are not a directory", side, src)
	}
	dst := tc.BackupPath(step.Started, side)
	progress(executor.Message(side, fmt.Sprintf("Backing up %s to %s", src, dst)))
	progress(executor.Percent(side, 0))
	err = copy.Copy(src, dst, copy.Options{
		PreserveTimes: true,
		Skip: func(_ os.FileInfo, _, _ string) (bool, error) {
			return false, ctx.Err()
		},
	})
	if err != nil {
		return fmt.Errorf("failed to back up %s sources: %w", side, err)
	}
	progress(executor.Percent(side, 100))
	return nil
}
