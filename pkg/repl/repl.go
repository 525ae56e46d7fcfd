// Package repl provides the interactive statement shell.
//
// Every input line is compiled as a complete script against the current
// bindings and evaluated once. Lines starting with ':' are shell commands:
//
//	:float name value   bind or update a float variable
//	:bool name value    bind or update a boolean
//	:vars               list every binding
//	:help               list the commands
//	:quit               leave the shell
package repl

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/lmorg/readline"

	"github.com/zurustar/tinyscript/pkg/compiler"
	"github.com/zurustar/tinyscript/pkg/host"
	"github.com/zurustar/tinyscript/pkg/logger"
	"github.com/zurustar/tinyscript/pkg/opcode"
	"github.com/zurustar/tinyscript/pkg/vm"
)

// Prompt is shown before each input line.
const Prompt = "tiny> "

var commands = []string{":bool", ":float", ":help", ":quit", ":vars"}

// Session executes shell input against a set of bindings.
type Session struct {
	bindings *host.Bindings
	out      io.Writer
	log      *slog.Logger
}

// NewSession creates a session that reads and writes bindings and prints
// results to out.
func NewSession(bindings *host.Bindings, out io.Writer) *Session {
	return &Session{
		bindings: bindings,
		out:      out,
		log:      logger.GetLogger(),
	}
}

// Do executes one input line and reports whether the session should end.
func (s *Session) Do(line string) (quit bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if strings.HasPrefix(line, ":") {
		return s.command(line)
	}

	s.run(line)
	return false
}

func (s *Session) command(line string) bool {
	fields := strings.Fields(line)

	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true

	case ":vars":
		if s.bindings.Len() == 0 {
			fmt.Fprintln(s.out, "no variables bound")
			return false
		}
		_ = s.bindings.Fprint(s.out)

	case ":float":
		if len(fields) != 3 {
			fmt.Fprintln(s.out, "usage: :float name value")
			return false
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			fmt.Fprintf(s.out, "invalid number %q\n", fields[2])
			return false
		}
		s.report(fields[1], s.bindings.SetFloat(fields[1], v))

	case ":bool":
		if len(fields) != 3 {
			fmt.Fprintln(s.out, "usage: :bool name value")
			return false
		}
		v, err := strconv.ParseBool(fields[2])
		if err != nil {
			fmt.Fprintf(s.out, "invalid boolean %q\n", fields[2])
			return false
		}
		s.report(fields[1], s.bindings.SetBool(fields[1], v))

	case ":help":
		fmt.Fprintln(s.out, "statements are compiled and evaluated once, e.g. x = 2 + 3;")
		fmt.Fprintln(s.out, "  :float name value   bind or update a float variable")
		fmt.Fprintln(s.out, "  :bool name value    bind or update a boolean")
		fmt.Fprintln(s.out, "  :vars               list every binding")
		fmt.Fprintln(s.out, "  :quit               leave the shell")

	default:
		fmt.Fprintf(s.out, "unknown command %s (try :help)\n", fields[0])
	}
	return false
}

func (s *Session) report(name string, err error) {
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	if line, ok := s.bindings.Format(name); ok {
		fmt.Fprintln(s.out, line)
	}
}

// run compiles and evaluates source, then prints the assigned variables.
func (s *Session) run(source string) {
	vars, bools, err := s.bindings.Registries()
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}

	program, err := compiler.CompileWithOptions(source, vars, bools, compiler.CompileOptions{Logger: s.log})
	if err != nil {
		fmt.Fprint(s.out, compiler.FormatError(err))
		return
	}

	vm.New(program, vm.WithLogger(s.log)).Evaluate()

	for _, name := range assigned(program) {
		if line, ok := s.bindings.Format(name); ok {
			fmt.Fprintln(s.out, line)
		}
	}
}

// assigned returns the names program writes to, sorted and without repeats.
func assigned(program *opcode.Program) []string {
	seen := make(map[string]bool)
	for _, stmt := range program.Statements {
		switch stmt.Kind {
		case opcode.FloatAssign:
			seen[program.Vars.Name(stmt.Dest)] = true
		case opcode.BoolAssign:
			seen[program.Bools.Name(stmt.Dest)] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Complete returns the commands and bound names that start with the last
// word of line.
func (s *Session) Complete(line string) []string {
	start := strings.LastIndexAny(line, " \t(){}=<>!&|;") + 1
	prefix := line[start:]

	candidates := s.bindings.Names()
	if start == 0 {
		candidates = append(candidates, commands...)
	}

	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			matches = append(matches, c)
		}
	}
	sort.Strings(matches)
	return matches
}

// tab adapts Complete to the readline completion callback, which expects
// suggestions with the typed prefix cropped off.
func (s *Session) tab(line []rune, pos int, _ readline.DelayedTabContext) (string, []string, map[string]string, readline.TabDisplayType) {
	text := string(line[:pos])
	start := strings.LastIndexAny(text, " \t(){}=<>!&|;") + 1
	prefix := text[start:]

	var suggestions []string
	for _, m := range s.Complete(text) {
		suggestions = append(suggestions, m[len(prefix):])
	}
	return prefix, suggestions, nil, readline.TabDisplayGrid
}

// Start runs the shell until :quit or until reading input fails.
func Start(s *Session) {
	rline := readline.NewInstance()
	rline.TabCompleter = s.tab

	fmt.Fprintln(s.out, "tinyscript interactive shell (:help for commands)")
	for {
		rline.SetPrompt(Prompt)
		line, err := rline.Readline()
		if err != nil {
			s.log.Debug("Readline finished", "error", err)
			return
		}

		if s.Do(line) {
			return
		}
	}
}
