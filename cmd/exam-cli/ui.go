package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/stemsi/exstem-local/internal/model"
	"github.com/stemsi/exstem-local/internal/service"
	"github.com/stemsi/exstem-local/internal/session"
	"github.com/stemsi/exstem-local/internal/timer"
	"github.com/stemsi/exstem-local/internal/validator"
)

const defaultWidth = 60

var errQuit = errors.New("quit")

// lockedWriter lets the timeout notice share the output with the main loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// ui is the line-oriented terminal front end. It only turns typed commands
// into service calls and renders the resulting views.
type ui struct {
	data   *service.DataService
	runner *service.ExamSessionService
	in     *bufio.Scanner
	out    io.Writer
	width  int
}

func newUI(data *service.DataService, runner *service.ExamSessionService, in io.Reader, out io.Writer, width int) *ui {
	if width <= 0 {
		width = defaultWidth
	}
	return &ui{
		data:   data,
		runner: runner,
		in:     bufio.NewScanner(in),
		out:    &lockedWriter{w: out},
		width:  width,
	}
}

// Run drives the login and menu screens until the user quits or input ends.
func (u *ui) Run(ctx context.Context) error {
	for {
		if u.data.CurrentStudent() == nil {
			if err := u.login(ctx); err != nil {
				return ignoreEnd(err)
			}
		}
		if err := u.menu(ctx); err != nil {
			return ignoreEnd(err)
		}
	}
}

func ignoreEnd(err error) error {
	if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (u *ui) printf(format string, args ...any) {
	fmt.Fprintf(u.out, format, args...)
}

func (u *ui) rule() {
	u.printf("%s\n", strings.Repeat("─", u.width))
}

// prompt prints label and reads one trimmed line.
func (u *ui) prompt(label string) (string, error) {
	u.printf("%s", label)
	if !u.in.Scan() {
		if err := u.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(u.in.Text()), nil
}

func (u *ui) confirm(question string) (bool, error) {
	line, err := u.prompt(question + " [y/N] ")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(line, "y") || strings.EqualFold(line, "yes"), nil
}

// ─── Login ──────────────────────────────────────────────────────────

func (u *ui) login(ctx context.Context) error {
	u.rule()
	u.printf("ExStem · Student Login\n")
	u.rule()

	for {
		name, err := u.prompt("Name:  ")
		if err != nil {
			return err
		}
		email, err := u.prompt("Email: ")
		if err != nil {
			return err
		}

		req := model.StudentLoginRequest{Name: name, Email: email}
		if fields := validator.Struct(req); fields != nil {
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				u.printf("  ! %s\n", fields[k])
			}
			continue
		}

		student, err := u.data.LoginStudent(ctx, req.Name, req.Email)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		u.printf("\nWelcome, %s!\n", student.Name)
		return nil
	}
}

// ─── Menu ───────────────────────────────────────────────────────────

func (u *ui) menu(ctx context.Context) error {
	for {
		student := u.data.CurrentStudent()
		if student == nil {
			return nil
		}
		exams := u.data.ActiveExams()

		u.rule()
		u.printf("Available exams for %s\n", student.Name)
		u.rule()
		if len(exams) == 0 {
			u.printf("  (no exams available)\n")
		}
		for i := range exams {
			e := &exams[i]
			u.printf("  %d) %s\n     %d questions · %d min · pass %.0f%%\n",
				i+1, e.Title, e.QuestionCount(), e.Duration, e.PassingScore)
		}
		u.printf("\n<number> start · h history · o logout · q quit\n")

		line, err := u.prompt("> ")
		if err != nil {
			return err
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "q":
			return errQuit
		case "o":
			if err := u.data.Logout(ctx); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			u.printf("Logged out.\n")
			return nil
		case "h":
			if err := u.history(student.ID); err != nil {
				return err
			}
			continue
		}

		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(exams) {
			u.printf("  ! Unknown choice %q\n", line)
			continue
		}
		if err := u.takeExam(ctx, exams[n-1].ID); err != nil {
			return err
		}
	}
}

// ─── Exam ───────────────────────────────────────────────────────────

func (u *ui) takeExam(ctx context.Context, examID string) error {
	events, cancel := u.runner.Subscribe()
	defer cancel()

	v, err := u.runner.StartExam(ctx, examID)
	if err != nil {
		u.printf("  ! Cannot start exam: %v\n", err)
		return nil
	}
	studentID := u.data.CurrentStudent().ID

	go func() {
		for ev := range events {
			if ev.Type == service.EventTimedOut {
				u.printf("\n*** Time is up. Your answers were submitted. Press Enter. ***\n")
			}
		}
	}()

	for {
		if v.State != model.SessionStateInProgress {
			// The countdown ran out while waiting for input.
			return u.showLatest(studentID)
		}
		u.renderQuestion(v)

		line, err := u.prompt("> ")
		if err != nil {
			u.runner.Exit()
			return err
		}

		cmd, err := parseCommand(line, len(v.Question.Options))
		if err != nil {
			u.printf("  ! %v (? for help)\n", err)
			v, err = u.runner.View()
			if err != nil {
				return nil
			}
			continue
		}

		switch cmd.kind {
		case cmdAnswer:
			v, err = u.runner.SelectAnswer(cmd.arg)
		case cmdNext:
			v, err = u.runner.Next()
		case cmdPrevious:
			v, err = u.runner.Previous()
		case cmdGoto:
			v, err = u.runner.JumpTo(cmd.arg)
		case cmdFlag:
			v, err = u.runner.ToggleFlag()
		case cmdHelp:
			u.printHelp()
			v, err = u.runner.View()
		case cmdRefresh:
			v, err = u.runner.View()
		case cmdSubmit:
			done, submitErr := u.submit(ctx, v)
			if done || submitErr != nil {
				return submitErr
			}
			v, err = u.runner.View()
		case cmdExit:
			ok, confirmErr := u.confirm("Leave the exam? Your answers will not be saved.")
			if confirmErr != nil {
				u.runner.Exit()
				return confirmErr
			}
			if ok {
				u.runner.Exit()
				return nil
			}
			v, err = u.runner.View()
		}

		if errors.Is(err, session.ErrNotInProgress) {
			return u.showLatest(studentID)
		}
		if err != nil {
			u.printf("  ! %v\n", err)
			if v, err = u.runner.View(); err != nil {
				return nil
			}
		}
	}
}

// submit asks for confirmation when questions are left open and reports
// whether the exam ended.
func (u *ui) submit(ctx context.Context, v session.View) (bool, error) {
	if open := v.QuestionCount - v.AnsweredCount; open > 0 {
		ok, err := u.confirm(fmt.Sprintf("%d question(s) unanswered. Submit anyway?", open))
		if err != nil || !ok {
			return false, err
		}
	}

	attempt, err := u.runner.Submit(ctx)
	if errors.Is(err, session.ErrNotInProgress) {
		return true, u.showLatest(u.data.CurrentStudent().ID)
	}
	if errors.Is(err, service.ErrAttemptNotSaved) {
		u.printf("  ! Your result could not be saved: %v\n", err)
		u.printAttempt(u.data.ResultFor(attempt))
		return true, u.pause()
	}
	if err != nil {
		u.printf("  ! Submit failed: %v\n", err)
		return false, nil
	}
	return true, u.showResult(attempt.ID)
}

func (u *ui) renderQuestion(v session.View) {
	u.rule()
	u.printf("%s\n", v.ExamTitle)
	u.printf("Question %d of %d · answered %d/%d · time left %s\n",
		v.CurrentIndex+1, v.QuestionCount, v.AnsweredCount, v.QuestionCount, v.RemainingFormatted)
	u.rule()

	if v.Flagged {
		u.printf("[flagged] ")
	}
	u.printf("%s\n\n", v.Question.Question)
	for i, opt := range v.Question.Options {
		mark := " "
		if v.SelectedOption != nil && *v.SelectedOption == i {
			mark = "*"
		}
		u.printf(" %s %s) %s\n", mark, optionLabel(i), opt)
	}

	u.printf("\n%s\n", navigator(v.Statuses))
	u.printf("a-%s answer · n next · p prev · g <n> go to · f flag · s submit · x exit · ? help\n",
		strings.ToLower(optionLabel(max(len(v.Question.Options)-1, 0))))
}

// navigator renders one cell per question: > current, * answered,
// ! flagged, . unanswered.
func navigator(statuses []model.QuestionStatus) string {
	var b strings.Builder
	for i, st := range statuses {
		if i > 0 {
			b.WriteByte(' ')
		}
		mark := "."
		switch st {
		case model.QuestionStatusCurrent:
			mark = ">"
		case model.QuestionStatusAnswered:
			mark = "*"
		case model.QuestionStatusFlagged:
			mark = "!"
		}
		fmt.Fprintf(&b, "%d%s", i+1, mark)
	}
	return b.String()
}

func (u *ui) printHelp() {
	u.printf(`Commands:
  a, b, c ...  select an option by letter (command letters win, use numbers then)
  1, 2, 3 ...  select an option by number
  n / p        next / previous question
  g <n>        go to question n
  f            flag or unflag the current question
  s            submit the exam
  x            leave without saving
`)
}

func optionLabel(i int) string {
	return string(rune('A' + i))
}

// ─── Results & History ──────────────────────────────────────────────

func (u *ui) showLatest(studentID string) error {
	attempts := u.data.GetAttemptsByStudent(studentID)
	if len(attempts) == 0 {
		u.printf("  ! The exam ended but no result was saved.\n")
		return nil
	}
	return u.showResult(attempts[0].ID)
}

func (u *ui) showResult(attemptID string) error {
	result, err := u.data.Result(attemptID)
	if err != nil {
		u.printf("  ! %v\n", err)
		return nil
	}
	u.printAttempt(result)

	for _, r := range result.Review {
		verdict := "--"
		if r.Correct {
			verdict = "OK"
		}
		yours := "-"
		if r.Selected != nil {
			yours = optionLabel(*r.Selected)
		}
		u.printf(" %s %d. %s\n      yours: %s · correct: %s · %d/%d pts\n",
			verdict, r.Index+1, r.Question, yours, optionLabel(r.CorrectAnswer), r.PointsEarned, r.Points)
	}
	return u.pause()
}

func (u *ui) printAttempt(r service.AttemptResult) {
	a := r.Attempt
	verdict := "FAILED"
	if a.Passed {
		verdict = "PASSED"
	}

	u.rule()
	title := a.ExamID
	total := ""
	if r.Exam != nil {
		title = r.Exam.Title
		total = fmt.Sprintf("/%d", r.Exam.TotalPoints)
	}
	u.printf("%s · %s\n", title, verdict)
	u.rule()
	u.printf("Score: %d%s (%.0f%%)  Grade: %s\n", a.Score, total, a.Percentage, r.Grade)
	if r.Exam != nil {
		u.printf("Correct: %d of %d\n", r.CorrectCount, r.Exam.QuestionCount)
	}
	u.printf("Time spent: %s", timer.FormatMinutes(a.TimeSpent))
	if a.EndReason == model.EndReasonTimedOut {
		u.printf(" (time ran out)")
	}
	u.printf("\n\n")
}

func (u *ui) history(studentID string) error {
	for {
		h := u.data.History(studentID)

		u.rule()
		u.printf("History\n")
		u.rule()
		if len(h.Attempts) == 0 {
			u.printf("  (no attempts yet)\n")
			return nil
		}
		for i, r := range h.Attempts {
			title := r.Attempt.ExamID
			if r.Exam != nil {
				title = r.Exam.Title
			}
			status := "failed"
			if r.Attempt.Passed {
				status = "passed"
			}
			u.printf("  %d) %s · %.0f%% %s · %s · %s\n",
				i+1, title, r.Attempt.Percentage, r.Grade, status, timer.FormatMinutes(r.Attempt.TimeSpent))
		}
		s := h.Stats
		u.printf("\n%d attempt(s) · %d passed · average %.0f%% · best %.0f%%\n",
			s.TotalAttempts, s.PassedAttempts, s.AverageScore, s.BestScore)

		line, err := u.prompt("<number> details · Enter back > ")
		if err != nil || line == "" {
			return err
		}
		n, convErr := strconv.Atoi(line)
		if convErr != nil || n < 1 || n > len(h.Attempts) {
			u.printf("  ! Unknown choice %q\n", line)
			continue
		}
		if err := u.showResult(h.Attempts[n-1].Attempt.ID); err != nil {
			return err
		}
	}
}

func (u *ui) pause() error {
	_, err := u.prompt("Press Enter to continue ")
	return err
}
