package confirm

import (
	"context"
	"errors"
	"testing"

	"github.com/mcphackers/mcpctl/engine/executor"
	"github.com/mcphackers/mcpctl/engine/project"
	"github.com/mcphackers/mcpctl/engine/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPrompter implements Prompter for testing
type MockPrompter struct {
	mock.Mock
}

func (m *MockPrompter) Confirm(ctx context.Context, p Prompt) (bool, error) {
	args := m.Called(ctx, p.Key)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrompter) ConfirmThreeWay(ctx context.Context, p Prompt) (Answer, error) {
	args := m.Called(ctx, p.Key)
	answer, ok := args.Get(0).(Answer)
	if !ok {
		return AnswerCancel, args.Error(1)
	}
	return answer, args.Error(1)
}

func (m *MockPrompter) PromptText(ctx context.Context, p Prompt) (string, bool, error) {
	args := m.Called(ctx, p.Key)
	return args.String(0), args.Bool(1), args.Error(2)
}

// MockRunner implements Runner for testing
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, req executor.Request) (*executor.Run, error) {
	args := m.Called(ctx, req.Mode, req.Side)
	run, _ := args.Get(0).(*executor.Run)
	return run, args.Error(1)
}

// MockNotifier implements Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyLog(msg string) {
	m.Called(msg)
}

type flowFixture struct {
	state    *project.State
	prompter *MockPrompter
	runner   *MockRunner
	notifier *MockNotifier
	flow     *Flow
}

func newFixture(flags map[task.Side]task.Flags) *flowFixture {
	fx := &flowFixture{
		state:    project.NewState(nil, flags),
		prompter: &MockPrompter{},
		runner:   &MockRunner{},
		notifier: &MockNotifier{},
	}
	fx.flow = NewFlow(task.DefaultRegistry(), fx.state, fx.runner, fx.prompter, fx.notifier)
	return fx
}

func (fx *flowFixture) assertExpectations(t *testing.T) {
	fx.prompter.AssertExpectations(t)
	fx.runner.AssertExpectations(t)
	fx.notifier.AssertExpectations(t)
}

func succeeded(mode task.Mode, side task.Side) *executor.Run {
	return executor.FinishedRun(mode, side, executor.Success())
}

var decompiledClient = map[task.Side]task.Flags{
	task.SideClient: {Sources: true},
}

func TestFlow_Decompile(t *testing.T) {
	t.Run("Should run directly without prompts on a fresh project", func(t *testing.T) {
		fx := newFixture(nil)
		fx.runner.On("Run", mock.Anything, task.ModeDecompile, task.SideClient).
			Return(succeeded(task.ModeDecompile, task.SideClient), nil).Once()

		run, err := fx.flow.Invoke(t.Context(), task.ModeDecompile, task.SideClient, nil)
		require.NoError(t, err)
		assert.Equal(t, task.ModeDecompile, run.Mode)
		fx.assertExpectations(t)
	})

	t.Run("Should leave everything untouched when re-decompile is declined", func(t *testing.T) {
		fx := newFixture(decompiledClient)
		before := fx.state.Snapshot()
		fx.prompter.On("Confirm", mock.Anything, "confirm_redecompile").Return(false, nil).Once()

		run, err := fx.flow.Invoke(t.Context(), task.ModeDecompile, task.SideClient, nil)
		require.NoError(t, err)
		outcome, done := run.Outcome()
		require.True(t, done)
		assert.True(t, outcome.WasDeclined())
		assert.Equal(t, before, fx.state.Snapshot())
		fx.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
		fx.assertExpectations(t)
	})

	t.Run("Should back up and then decompile when both answers are yes", func(t *testing.T) {
		fx := newFixture(decompiledClient)
		fx.prompter.On("Confirm", mock.Anything, "confirm_redecompile").Return(true, nil).Once()
		fx.prompter.On("ConfirmThreeWay", mock.Anything, "backup_sources").Return(AnswerYes, nil).Once()
		mock.InOrder(
			fx.runner.On("Run", mock.Anything, task.ModeBackupSource, task.SideClient).
				Return(succeeded(task.ModeBackupSource, task.SideClient), nil).Once(),
			fx.runner.On("Run", mock.Anything, task.ModeDecompile, task.SideClient).
				Return(succeeded(task.ModeDecompile, task.SideClient), nil).Once(),
		)

		run, err := fx.flow.Invoke(t.Context(), task.ModeDecompile, task.SideClient, nil)
		require.NoError(t, err)
		assert.Equal(t, task.ModeDecompile, run.Mode)
		fx.assertExpectations(t)
	})

	t.Run("Should skip the backup when the answer is no", func(t *testing.T) {
		fx := newFixture(decompiledClient)
		fx.prompter.On("Confirm", mock.Anything, "confirm_redecompile").Return(true, nil).Once()
		fx.prompter.On("ConfirmThreeWay", mock.Anything, "backup_sources").Return(AnswerNo, nil).Once()
		fx.runner.On("Run", mock.Anything, task.ModeDecompile, task.SideClient).
			Return(succeeded(task.ModeDecompile, task.SideClient), nil).Once()

		_, err := fx.flow.Invoke(t.Context(), task.ModeDecompile, task.SideClient, nil)
		require.NoError(t, err)
		fx.runner.AssertNotCalled(t, "Run", mock.Anything, task.ModeBackupSource, mock.Anything)
		fx.assertExpectations(t)
	})

	t.Run("Should run nothing when the backup question is canceled", func(t *testing.T) {
		fx := newFixture(decompiledClient)
		before := fx.state.Snapshot()
		fx.prompter.On("Confirm", mock.Anything, "confirm_redecompile").Return(true, nil).Once()
		fx.prompter.On("ConfirmThreeWay", mock.Anything, "backup_sources").Return(AnswerCancel, nil).Once()

		run, err := fx.flow.Invoke(t.Context(), task.ModeDecompile, task.SideClient, nil)
		require.NoError(t, err)
		outcome, _ := run.Outcome()
		assert.True(t, outcome.WasDeclined())
		assert.Equal(t, before, fx.state.Snapshot())
		fx.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
		fx.assertExpectations(t)
	})

	t.Run("Should decline and notify when a prompt fails", func(t *testing.T) {
		fx := newFixture(decompiledClient)
		fx.prompter.On("Confirm", mock.Anything, "confirm_redecompile").
			Return(false, errors.New("terminal closed")).Once()
		fx.notifier.On("NotifyLog", mock.AnythingOfType("string")).Once()

		run, err := fx.flow.Invoke(t.Context(), task.ModeDecompile, task.SideClient, nil)
		require.NoError(t, err)
		outcome, _ := run.Outcome()
		assert.True(t, outcome.WasDeclined())
		fx.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
		fx.assertExpectations(t)
	})

	t.Run("Should not decompile when the backup fails", func(t *testing.T) {
		fx := newFixture(decompiledClient)
		fx.prompter.On("Confirm", mock.Anything, "confirm_redecompile").Return(true, nil).Once()
		fx.prompter.On("ConfirmThreeWay", mock.Anything, "backup_sources").Return(AnswerYes, nil).Once()
		failed := executor.FinishedRun(task.ModeBackupSource, task.SideClient, executor.Failure(errors.New("no space left")))
		fx.runner.On("Run", mock.Anything, task.ModeBackupSource, task.SideClient).Return(failed, nil).Once()
		fx.notifier.On("NotifyLog", mock.AnythingOfType("string")).Once()

		run, err := fx.flow.Invoke(t.Context(), task.ModeDecompile, task.SideClient, nil)
		require.NoError(t, err)
		outcome, _ := run.Outcome()
		assert.True(t, outcome.WasDeclined())
		fx.runner.AssertNotCalled(t, "Run", mock.Anything, task.ModeDecompile, mock.Anything)
		fx.assertExpectations(t)
	})

	t.Run("Should return the error of an ineligible backup", func(t *testing.T) {
		fx := newFixture(decompiledClient)
		fx.prompter.On("Confirm", mock.Anything, "confirm_redecompile").Return(true, nil).Once()
		fx.prompter.On("ConfirmThreeWay", mock.Anything, "backup_sources").Return(AnswerYes, nil).Once()
		ineligible := &executor.IneligibleError{Mode: task.ModeBackupSource, Side: task.SideClient, Reason: "another task is running"}
		fx.runner.On("Run", mock.Anything, task.ModeBackupSource, task.SideClient).Return(nil, ineligible).Once()

		run, err := fx.flow.Invoke(t.Context(), task.ModeDecompile, task.SideClient, nil)
		assert.Nil(t, run)
		assert.ErrorIs(t, err, executor.ErrIneligibleOperation)
		fx.assertExpectations(t)
	})
}

func TestFlow_UpdateChecksums(t *testing.T) {
	sources := map[task.Side]task.Flags{task.SideServer: {Sources: true}}

	t.Run("Should run only after confirmation", func(t *testing.T) {
		fx := newFixture(sources)
		fx.prompter.On("Confirm", mock.Anything, "confirm_update_checksums").Return(true, nil).Once()
		fx.runner.On("Run", mock.Anything, task.ModeUpdateChecksums, task.SideServer).
			Return(succeeded(task.ModeUpdateChecksums, task.SideServer), nil).Once()

		_, err := fx.flow.Invoke(t.Context(), task.ModeUpdateChecksums, task.SideServer, nil)
		require.NoError(t, err)
		fx.assertExpectations(t)
	})

	t.Run("Should decline on no", func(t *testing.T) {
		fx := newFixture(sources)
		fx.prompter.On("Confirm", mock.Anything, "confirm_update_checksums").Return(false, nil).Once()

		run, err := fx.flow.Invoke(t.Context(), task.ModeUpdateChecksums, task.SideServer, nil)
		require.NoError(t, err)
		outcome, _ := run.Outcome()
		assert.True(t, outcome.WasDeclined())
		fx.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
		fx.assertExpectations(t)
	})
}

func TestFlow_Policies(t *testing.T) {
	everything := map[task.Side]task.Flags{
		task.SideClient: {Sources: true, Recompiled: true, Reobfuscated: true, Built: true},
		task.SideServer: {Sources: true, Recompiled: true, Reobfuscated: true, Built: true},
	}
	tests := []struct {
		mode    task.Mode
		prompts int
	}{
		{task.ModeDecompile, 2},
		{task.ModeRecompile, 0},
		{task.ModeReobfuscate, 0},
		{task.ModeBuild, 0},
		{task.ModeUpdateChecksums, 1},
		{task.ModeCreatePatch, 0},
		{task.ModeBackupSource, 0},
		{task.ModeSetup, 0},
	}
	for _, tt := range tests {
		t.Run("Should declare the expected steps for "+string(tt.mode), func(t *testing.T) {
			policy := PolicyFor(tt.mode)
			assert.Len(t, policy.Steps, tt.prompts)
			assert.Equal(t, tt.prompts > 0, policy.Applies(task.DefaultRegistry(), project.NewState(nil, everything).Snapshot(), task.SideClient))
		})
	}

	t.Run("Should start prompt-free modes directly", func(t *testing.T) {
		for _, mode := range []task.Mode{task.ModeRecompile, task.ModeReobfuscate, task.ModeBuild, task.ModeCreatePatch, task.ModeBackupSource} {
			fx := newFixture(everything)
			fx.runner.On("Run", mock.Anything, mode, task.SideAny).Return(succeeded(mode, task.SideAny), nil).Once()
			_, err := fx.flow.Invoke(t.Context(), mode, task.SideAny, nil)
			require.NoError(t, err)
			fx.assertExpectations(t)
		}
	})

	t.Run("Should only prompt for decompile when recompile is available", func(t *testing.T) {
		policy := PolicyFor(task.ModeDecompile)
		fresh := project.NewState(nil, nil).Snapshot()
		assert.False(t, policy.Applies(task.DefaultRegistry(), fresh, task.SideClient))
	})

	t.Run("Should honor a replaced policy table", func(t *testing.T) {
		fx := newFixture(nil)
		fx.flow = NewFlow(task.DefaultRegistry(), fx.state, fx.runner, fx.prompter, fx.notifier,
			WithPolicies(func(task.Mode) Policy { return Policy{} }))
		fx.runner.On("Run", mock.Anything, task.ModeDecompile, task.SideClient).
			Return(succeeded(task.ModeDecompile, task.SideClient), nil).Once()
		_, err := fx.flow.Invoke(t.Context(), task.ModeDecompile, task.SideClient, nil)
		require.NoError(t, err)
		fx.assertExpectations(t)
	})
}

func TestFlow_Ineligible(t *testing.T) {
	t.Run("Should refuse without prompting while a task is active", func(t *testing.T) {
		fx := newFixture(map[task.Side]task.Flags{task.SideClient: {Sources: true}})
		require.True(t, fx.state.TryActivate())
		defer fx.state.Deactivate()

		_, err := fx.flow.Invoke(t.Context(), task.ModeUpdateChecksums, task.SideClient, nil)
		require.ErrorIs(t, err, executor.ErrIneligibleOperation)
		assert.Contains(t, err.Error(), "another task is running")
		fx.assertExpectations(t)
	})

	t.Run("Should refuse a stage whose prerequisite is missing", func(t *testing.T) {
		fx := newFixture(nil)
		_, err := fx.flow.Invoke(t.Context(), task.ModeRecompile, task.SideServer, nil)
		require.ErrorIs(t, err, executor.ErrIneligibleOperation)
		fx.assertExpectations(t)
	})
}

func TestAnswer_String(t *testing.T) {
	t.Run("Should name every answer", func(t *testing.T) {
		assert.Equal(t, "yes", AnswerYes.String())
		assert.Equal(t, "no", AnswerNo.String())
		assert.Equal(t, "cancel", AnswerCancel.String())
	})
}
