/*
Sqi starts an interactive sequitur session.

It reads lines of text from stdin, one at a time, and pushes each line's
bytes (plus the trailing newline) into a grammar inferred online, one
terminal at a time. Lines beginning with "/" are meta-commands instead of
input to push; type "/help" once in a session for a list.

Usage:

	sqi [flags]

The flags are:

	-v, --version
		Give the current version of sqi and then exit.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading input, even if launched in a tty
		with stdin and stdout.

	-c, --command LINES
		Immediately push the given line(s) at start, before reading further
		input. Multiple lines are separated by the ";" character.
*/
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/dekarrin/sequitur"
	"github.com/dekarrin/sequitur/internal/input"
	"github.com/dekarrin/sequitur/internal/symbol"
	"github.com/dekarrin/sequitur/internal/version"
	"github.com/spf13/pflag"
)

const (
	ExitSuccess = iota
	ExitRuntimeError
	ExitInitError
)

var (
	returnCode   = ExitSuccess
	flagVersion  = pflag.BoolP("version", "v", false, "Give the current version of sqi and then exit.")
	forceDirect  = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through readline where possible.")
	startCommand = pflag.StringP("command", "c", "", "Push the given line(s) immediately at start, separated by ';'.")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	var startLines []string
	if *startCommand != "" {
		startLines = strings.Split(*startCommand, ";")
	}

	useReadline := !*forceDirect && isStdinTerminal()

	var reader input.LineReader

	if useReadline {
		ilr, err := input.NewInteractiveReader("sqi> ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			returnCode = ExitInitError
			return
		}
		reader = ilr
	} else {
		reader = input.NewDirectReader(os.Stdin)
	}
	defer reader.Close()

	sess := newSession()

	for _, line := range startLines {
		sess.handle(strings.TrimSpace(line))
	}

	if sess.done {
		return
	}

	for {
		line, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				return
			}
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			returnCode = ExitRuntimeError
			return
		}

		sess.handle(line)
		if sess.done {
			return
		}
	}
}

// isStdinTerminal reports whether stdin and stdout both look like the
// console we launched in, the same heuristic the readline-vs-direct
// selection in the original interactive engine used.
func isStdinTerminal() bool {
	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stdinInfo.Mode() & os.ModeCharDevice) != 0
}

// session holds one sqi REPL's live grammar and exit state.
type session struct {
	eng  *sequitur.Engine[byte]
	done bool
}

func newSession() *session {
	return &session{eng: sequitur.New[byte]()}
}

func (s *session) handle(line string) {
	if line == "" {
		return
	}

	if strings.HasPrefix(line, "/") {
		s.handleMeta(line)
		return
	}

	sequitur.PushString(s.eng, line+"\n")
}

func (s *session) handleMeta(line string) {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/quit", "/exit":
		s.done = true
	case "/help":
		printHelp()
	case "/stats":
		printStats(s.eng)
	case "/rules":
		printRules(s.eng)
	case "/flatten":
		reverse := len(fields) > 1 && strings.EqualFold(fields[1], "reverse")
		printFlatten(s.eng, reverse)
	default:
		fmt.Fprintf(os.Stderr, "unrecognized command %q; try /help\n", fields[0])
	}
}

func printHelp() {
	fmt.Println(`Meta-commands:
  /help            show this message
  /stats           show terminal count and rule count
  /rules           show the current rule table
  /flatten         show the fully expanded terminal sequence
  /flatten reverse show it walked from the last terminal pushed back
  /quit, /exit     leave the session
Any other line is pushed, one byte at a time, into the grammar.`)
}

func printStats(eng *sequitur.Engine[byte]) {
	stats := eng.Stats()
	fmt.Printf("%d terminal(s) pushed, %d rule(s)\n", stats.Length, stats.RuleCount)
}

func printFlatten(eng *sequitur.Engine[byte], reverse bool) {
	var data []byte
	if reverse {
		data = sequitur.FlattenReverse(eng)
	} else {
		data = sequitur.Flatten(eng)
	}
	fmt.Printf("%s", string(data))
}

// printRules renders the grammar's full rule table using the same
// bordered-table approach used elsewhere in this codebase's ancestry for
// rendering parse tables.
func printRules(eng *sequitur.Engine[byte]) {
	rules := eng.Rules()
	startID := eng.StartRuleID()

	ids := make([]int, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sortInts(ids)

	data := [][]string{{"rule", "count", "body"}}
	for _, id := range ids {
		rule := rules[id]
		label := fmt.Sprintf("%d", id)
		if id == startID {
			label += " (start)"
		}

		var body strings.Builder
		for n := rule.Head.Next(); n != rule.Tail; n = n.Next() {
			body.WriteString(symbolLabel(n.Sym))
		}

		data = append(data, []string{label, fmt.Sprintf("%d", rule.Count), body.String()})
	}

	fmt.Println(rosed.Edit("").
		InsertTableOpts(0, data, 100, rosed.Options{
			TableBorders: true,
		}).
		String())
}

// symbolLabel renders a single rule-body symbol: a terminal byte as a
// one-character string, a rule reference as "#<id>".
func symbolLabel(sym symbol.Symbol[byte]) string {
	switch sym.Kind {
	case symbol.Terminal:
		return string(sym.Term)
	case symbol.RuleRef:
		return fmt.Sprintf("#%d", sym.RuleID)
	default:
		return sym.Kind.String()
	}
}

func sortInts(ids []int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
