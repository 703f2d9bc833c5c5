package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-local/internal/config"
	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/repository"
	"github.com/stemsi/exstem-local/internal/service"
	"github.com/stemsi/exstem-local/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    command
		wantErr bool
	}{
		{"empty refreshes", "   ", command{kind: cmdRefresh}, false},
		{"letter answer", "b", command{kind: cmdAnswer, arg: 1}, false},
		{"upper letter answer", "D", command{kind: cmdAnswer, arg: 3}, false},
		{"number answer", "3", command{kind: cmdAnswer, arg: 2}, false},
		{"next", "n", command{kind: cmdNext}, false},
		{"previous", "P", command{kind: cmdPrevious}, false},
		{"flag", "f", command{kind: cmdFlag}, false},
		{"submit", "s", command{kind: cmdSubmit}, false},
		{"exit", "x", command{kind: cmdExit}, false},
		{"help", "?", command{kind: cmdHelp}, false},
		{"goto", "g 5", command{kind: cmdGoto, arg: 4}, false},
		{"goto without number", "g", command{}, true},
		{"goto zero", "g 0", command{}, true},
		{"option out of range", "e", command{}, true},
		{"number out of range", "5", command{}, true},
		{"number zero", "0", command{}, true},
		{"gibberish", "hello", command{}, true},
		{"extra words", "a b", command{}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseCommand(tc.line, 4)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNavigator(t *testing.T) {
	got := navigator([]model.QuestionStatus{
		model.QuestionStatusAnswered,
		model.QuestionStatusCurrent,
		model.QuestionStatusFlagged,
		model.QuestionStatusUnanswered,
	})
	assert.Equal(t, "1* 2> 3! 4.", got)
}

func newTestUI(t *testing.T, input string) (*ui, *service.DataService, *bytes.Buffer) {
	t.Helper()
	return newTestUIWithKV(t, input, repository.NewMemoryKV())
}

func newTestUIWithKV(t *testing.T, input string, kv repository.KV) (*ui, *service.DataService, *bytes.Buffer) {
	t.Helper()
	validator.Setup()

	data := service.NewDataService(kv, zerolog.Nop())
	require.NoError(t, data.Load(context.Background()))
	runner := service.NewExamSessionService(data, time.Hour, zerolog.Nop())
	t.Cleanup(runner.Close)

	var out bytes.Buffer
	return newUI(data, runner, strings.NewReader(input), &out, 40), data, &out
}

func TestRunTakesExam(t *testing.T) {
	script := strings.Join([]string{
		"Ada", "ada@example.com", // login
		"2",           // start the second exam
		"a", "n",      // correct
		"b", "f", "n", // correct, flagged
		"9",           // no such option
		"a",           // wrong
		"s",           // all answered, no confirmation
		"",            // leave the result screen
		"h",           // history
		"",            // back
		"q",
	}, "\n") + "\n"

	u, data, out := newTestUI(t, script)
	require.NoError(t, u.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Welcome, Ada!")
	assert.Contains(t, text, "Question 3 of 3")
	assert.Contains(t, text, "no option 9")
	assert.Contains(t, text, "Score: 30/150 (20%)  Grade: F")
	assert.Contains(t, text, "Correct: 2 of 3")
	assert.Contains(t, text, "1 attempt(s) · 0 passed")

	student := data.CurrentStudent()
	require.NotNil(t, student)
	attempts := data.GetAttemptsByStudent(student.ID)
	require.Len(t, attempts, 1)
	assert.Equal(t, model.EndReasonSubmitted, attempts[0].EndReason)
}

func TestRunRejectsInvalidLogin(t *testing.T) {
	u, data, out := newTestUI(t, "\nnot-an-email\nAda\nada@example.com\nq\n")
	require.NoError(t, u.Run(context.Background()))

	assert.Contains(t, out.String(), "  ! ")
	require.NotNil(t, data.CurrentStudent())
	assert.Equal(t, "ada@example.com", data.CurrentStudent().Email)
}

func TestRunExitDoesNotRecord(t *testing.T) {
	u, data, _ := newTestUI(t, "Ada\nada@example.com\n1\na\nx\ny\nq\n")
	require.NoError(t, u.Run(context.Background()))

	assert.Empty(t, data.GetAttemptsByStudent(data.CurrentStudent().ID))
}

func TestRunSubmitAsksWhenUnanswered(t *testing.T) {
	// Declining keeps the exam open; the second submit is confirmed.
	u, data, out := newTestUI(t, "Ada\nada@example.com\n1\ns\nn\ns\ny\n\nq\n")
	require.NoError(t, u.Run(context.Background()))

	assert.Contains(t, out.String(), "5 question(s) unanswered")
	attempts := data.GetAttemptsByStudent(data.CurrentStudent().ID)
	require.Len(t, attempts, 1)
	assert.Zero(t, attempts[0].Score)
}

func TestRunEndsOnInputEOF(t *testing.T) {
	u, data, _ := newTestUI(t, "Ada\nada@example.com\n2\na\n")
	require.NoError(t, u.Run(context.Background()))

	// Input ran out mid-exam: the session is abandoned unrecorded.
	assert.Empty(t, data.GetAttemptsByStudent(data.CurrentStudent().ID))
}

// attemptsReadOnly refuses to write the attempt history.
type attemptsReadOnly struct {
	*repository.MemoryKV
}

func (a attemptsReadOnly) Set(ctx context.Context, key string, value []byte) error {
	if key == config.StorageKey.Attempts {
		return errors.New("read-only file system")
	}
	return a.MemoryKV.Set(ctx, key, value)
}

func TestRunShowsResultWhenSaveFails(t *testing.T) {
	script := "Ada\nada@example.com\n2\na\nn\nb\nn\na\ns\n\nq\n"
	u, data, out := newTestUIWithKV(t, script, attemptsReadOnly{repository.NewMemoryKV()})
	require.NoError(t, u.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Your result could not be saved")
	assert.Contains(t, text, "Score: 30/150 (20%)  Grade: F")
	assert.Empty(t, data.GetAttemptsByStudent(data.CurrentStudent().ID))
}
