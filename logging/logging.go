// Package logging implements the Sink interface spec §6.1 fixes: one
// method to write a message, one to read a command line back (used by
// the debugger's REPL). Grounded on the teacher's repl package, which
// splits a buffered test logger, a TTY-aware console logger, and (here)
// a null logger for batch/library use — the same three-way split
// SPEC_FULL.md's ambient stack section asks for.
package logging

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Sink is spec §6.1: Log writes a message; Get reads one command line
// for the debugger (ok is false once the source is exhausted).
type Sink interface {
	Log(message string)
	Get() (string, bool)
}

// Buffer is an in-memory line log with a scripted command queue, used by
// every interpreter/debugger test (mirrors the teacher's ContollerLogger-
// style test double and the C++ source's TestLogger).
type Buffer struct {
	Logs     []string
	Commands []string
	next     int
}

func NewBuffer(commands ...string) *Buffer {
	return &Buffer{Commands: commands}
}

func (b *Buffer) Log(message string) { b.Logs = append(b.Logs, message) }

func (b *Buffer) Get() (string, bool) {
	if b.next >= len(b.Commands) {
		return "", false
	}
	cmd := b.Commands[b.next]
	b.next++
	return cmd, true
}

// PushCommand appends a command to the queue mid-test, for scenarios that
// build the command list incrementally.
func (b *Buffer) PushCommand(cmd string) { b.Commands = append(b.Commands, cmd) }

// Reset rewinds the command cursor so a replaced Commands list replays
// from its first entry.
func (b *Buffer) Reset() { b.next = 0 }

// Console wraps stdout/stdin, printing a "debug> " prompt only when stdin
// is an interactive terminal (matches the teacher's repl/input_tty.go TTY
// detection — no prompt noise when stdin is piped from a script or test
// harness).
type Console struct {
	out    io.Writer
	in     *bufio.Scanner
	prompt bool
}

func NewConsole(in *os.File, out *os.File) *Console {
	c := &Console{out: out, in: bufio.NewScanner(in)}
	c.prompt = term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
	return c
}

func (c *Console) Log(message string) {
	fmt.Fprintln(c.out, message)
}

func (c *Console) Get() (string, bool) {
	if c.prompt {
		fmt.Fprint(c.out, "debug> ")
	}
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimRight(c.in.Text(), "\r\n"), true
}

// Discard is the null logger for batch/library use (e.g. non-interactive
// recalculation runs where built-in Print output is unwanted).
type Discard struct{}

func (Discard) Log(string)          {}
func (Discard) Get() (string, bool) { return "", false }
