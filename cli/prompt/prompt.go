// Package prompt implements the confirmation questions of the CLI.
package prompt

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mcphackers/mcpctl/engine/confirm"
)

// FormRunner runs a built form until the user completes or aborts it.
type FormRunner func(ctx context.Context, form *huh.Form) error

// Interactive asks questions on the terminal with huh forms.
type Interactive struct {
	run        FormRunner
	input      io.Reader
	output     io.Writer
	accessible bool
}

type Option func(*Interactive)

// WithFormRunner replaces the form runner. Used by tests.
func WithFormRunner(run FormRunner) Option {
	return func(p *Interactive) {
		p.run = run
	}
}

// WithIO binds the forms to the given streams instead of the terminal.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(p *Interactive) {
		p.input = in
		p.output = out
	}
}

// WithAccessible switches to plain line prompts for screen readers and dumb
// terminals.
func WithAccessible(on bool) Option {
	return func(p *Interactive) {
		p.accessible = on
	}
}

func NewInteractive(opts ...Option) *Interactive {
	p := &Interactive{
		run: func(ctx context.Context, form *huh.Form) error {
			return form.RunWithContext(ctx)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Interactive) form(fields ...huh.Field) *huh.Form {
	form := huh.NewForm(huh.NewGroup(fields...)).
		WithShowHelp(false).
		WithAccessible(p.accessible)
	if p.input != nil {
		form = form.WithInput(p.input)
	}
	if p.output != nil {
		form = form.WithOutput(p.output)
	}
	return form
}

// Confirm asks a yes/no question. Aborting the form answers no.
func (p *Interactive) Confirm(ctx context.Context, q confirm.Prompt) (bool, error) {
	var ok bool
	field := huh.NewConfirm().
		Key(q.Key).
		Title(q.Title).
		Description(q.Message).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	if err := p.run(ctx, p.form(field)); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// ConfirmThreeWay asks a yes/no/cancel question. Aborting the form cancels.
func (p *Interactive) ConfirmThreeWay(ctx context.Context, q confirm.Prompt) (confirm.Answer, error) {
	answer := confirm.AnswerCancel
	field := huh.NewSelect[confirm.Answer]().
		Key(q.Key).
		Title(q.Title).
		Description(q.Message).
		Options(
			huh.NewOption("Yes", confirm.AnswerYes),
			huh.NewOption("No", confirm.AnswerNo),
			huh.NewOption("Cancel", confirm.AnswerCancel),
		).
		Value(&answer)
	if err := p.run(ctx, p.form(field)); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return confirm.AnswerCancel, nil
		}
		return confirm.AnswerCancel, err
	}
	return answer, nil
}

// PromptText asks for one line of text. Aborting the form dismisses it.
func (p *Interactive) PromptText(ctx context.Context, q confirm.Prompt) (string, bool, error) {
	var value string
	field := huh.NewInput().
		Key(q.Key).
		Title(q.Title).
		Description(q.Message).
		Value(&value)
	if err := p.run(ctx, p.form(field)); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", false, nil
		}
		return "", false, err
	}
	value = strings.TrimSpace(value)
	return value, value != "", nil
}

// Unattended answers without a terminal. With AssumeYes every confirmation
// is accepted; otherwise every question fails with confirm.ErrNoInput, which
// the confirmation flow treats as a decline.
type Unattended struct {
	AssumeYes bool
}

func (u Unattended) Confirm(_ context.Context, _ confirm.Prompt) (bool, error) {
	if u.AssumeYes {
		return true, nil
	}
	return false, confirm.ErrNoInput
}

func (u Unattended) ConfirmThreeWay(_ context.Context, _ confirm.Prompt) (confirm.Answer, error) {
	if u.AssumeYes {
		return confirm.AnswerYes, nil
	}
	return confirm.AnswerCancel, confirm.ErrNoInput
}

// PromptText always fails: free text cannot be assumed.
func (u Unattended) PromptText(_ context.Context, _ confirm.Prompt) (string, bool, error) {
	return "", false, confirm.ErrNoInput
}
