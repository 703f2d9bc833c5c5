package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type commandKind int

const (
	cmdRefresh commandKind = iota
	cmdAnswer
	cmdNext
	cmdPrevious
	cmdGoto
	cmdFlag
	cmdSubmit
	cmdExit
	cmdHelp
)

// command is one parsed exam-screen input. arg is a zero-based option or
// question index.
type command struct {
	kind commandKind
	arg  int
}

var errUnknownCommand = errors.New("unknown command")

var letterCommands = map[string]commandKind{
	"n": cmdNext,
	"p": cmdPrevious,
	"f": cmdFlag,
	"s": cmdSubmit,
	"x": cmdExit,
	"?": cmdHelp,
}

// parseCommand reads one line typed on the exam screen. Command letters take
// precedence over option letters; numbers always select an option.
func parseCommand(line string, optionCount int) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{kind: cmdRefresh}, nil
	}

	head := fields[0]
	if head == "g" {
		if len(fields) != 2 {
			return command{}, fmt.Errorf("usage: g <question number>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return command{}, fmt.Errorf("invalid question number %q", fields[1])
		}
		return command{kind: cmdGoto, arg: n - 1}, nil
	}
	if len(fields) != 1 {
		return command{}, fmt.Errorf("%w %q", errUnknownCommand, line)
	}

	if kind, ok := letterCommands[head]; ok {
		return command{kind: kind}, nil
	}
	if n, err := strconv.Atoi(head); err == nil {
		if n < 1 || n > optionCount {
			return command{}, fmt.Errorf("no option %d", n)
		}
		return command{kind: cmdAnswer, arg: n - 1}, nil
	}
	if len(head) == 1 && head[0] >= 'a' && head[0] <= 'z' {
		idx := int(head[0] - 'a')
		if idx >= optionCount {
			return command{}, fmt.Errorf("no option %s", strings.ToUpper(head))
		}
		return command{kind: cmdAnswer, arg: idx}, nil
	}
	return command{}, fmt.Errorf("%w %q", errUnknownCommand, line)
}
