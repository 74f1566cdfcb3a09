// Package input reads lines of interactive-session input from a terminal or
// a plain stream.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// LineReader reads one line of input at a time. It must have Close called on
// it before disposal.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

// DirectLineReader implements LineReader over any io.Reader, without relying
// on a TTY. It does not sanitize control or escape sequences.
type DirectLineReader struct {
	r *bufio.Reader
}

// InteractiveLineReader implements LineReader using a GNU Readline-alike,
// giving line editing and history. Intended for use when stdin is directly
// connected to a TTY.
type InteractiveLineReader struct {
	rl *readline.Instance
}

// NewDirectReader wraps r in a DirectLineReader.
func NewDirectReader(r io.Reader) *DirectLineReader {
	return &DirectLineReader{r: bufio.NewReader(r)}
}

// NewInteractiveReader initializes readline with the given prompt.
func NewInteractiveReader(prompt string) (*InteractiveLineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}
	return &InteractiveLineReader{rl: rl}, nil
}

// Close implements LineReader.
func (dlr *DirectLineReader) Close() error {
	return nil
}

// Close implements LineReader.
func (ilr *InteractiveLineReader) Close() error {
	return ilr.rl.Close()
}

// ReadLine reads the next non-empty line from the wrapped reader. If at end
// of input, it returns an empty string and io.EOF.
func (dlr *DirectLineReader) ReadLine() (string, error) {
	for {
		line, err := dlr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		if trimmed := strings.TrimRight(line, "\r\n"); trimmed != "" || err == io.EOF {
			return trimmed, err
		}
	}
}

// ReadLine reads the next non-empty line via readline. If at end of input,
// it returns an empty string and io.EOF.
func (ilr *InteractiveLineReader) ReadLine() (string, error) {
	for {
		line, err := ilr.rl.Readline()
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
	}
}

// SetPrompt updates the interactive prompt.
func (ilr *InteractiveLineReader) SetPrompt(p string) {
	ilr.rl.SetPrompt(p)
}
