package toolchain

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/task"
	"golang.org/x/sync/errgroup"
)

// CommandError reports a command that could not be run or exited non-zero.
// Its message is the last line the command printed when there is one.
type CommandError struct {
	Command  string
	LastLine string
	Err      error
}

func (e *CommandError) Error() string {
	if e.LastLine != "" {
		return e.LastLine
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

var percentLine = regexp.MustCompile(`^\s*(\d{1,3})\s*%\s*$`)

// parseLine turns one output line into a progress event.
func parseLine(side task.Side, line string) executor.Progress {
	if m := percentLine.FindStringSubmatch(line); m != nil {
		if pct, err := strconv.Atoi(m[1]); err == nil {
			return executor.Percent(side, pct)
		}
	}
	return executor.Message(side, line)
}

// parseCommand renders tmpl and splits it into arguments.
func (tc *Toolchain) parseCommand(tmpl string, data map[string]any) ([]string, error) {
	rendered, err := tc.tpl.RenderString(tmpl, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render command: %w", err)
	}
	parts, err := shlex.Split(rendered)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command %q: %w", rendered, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("command %q is empty", rendered)
	}
	return parts, nil
}

func (tc *Toolchain) environ(data map[string]any) ([]string, error) {
	extra, err := tc.tpl.RenderMap(tc.cfg.Env, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render environment: %w", err)
	}
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env, nil
}

func (tc *Toolchain) runCommand(
	ctx context.Context,
	tmpl string,
	job executor.Job,
	side task.Side,
	progress executor.ProgressFunc,
) error {
	data := tc.templateData(job, side)
	argv, err := tc.parseCommand(tmpl, data)
	if err != nil {
		return err
	}
	env, err := tc.environ(data)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = tc.cfg.WorkDir
	cmd.Env = env
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	name := strings.Join(argv, " ")
	if err := cmd.Start(); err != nil {
		return &CommandError{Command: name, Err: err}
	}

	var lastLine string
	g := errgroup.Group{}
	g.Go(func() error {
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			lastLine = strings.TrimSpace(line)
			progress(parseLine(side, line))
		}
		err := scanner.Err()
		// Keep draining so the process never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, pr)
		return err
	})
	g.Go(func() error {
		err := cmd.Wait()
		pw.Close()
		return err
	})
	if err := g.Wait(); err != nil {
		return &CommandError{Command: name, LastLine: lastLine, Err: err}
	}
	return nil
}
