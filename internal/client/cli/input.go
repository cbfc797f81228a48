package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/zkauth/internal/common"
	"golang.org/x/term"
)

// Swapped out in tests so nothing touches the real terminal.
var (
	promptLine   = readLine
	promptSecret = readSecret
	readPassword = term.ReadPassword
)

// readLine writes "label: " and returns the next line with surrounding
// whitespace removed. A last line without a trailing newline still counts.
func readLine(r *bufio.Reader, w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	line, err := r.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readSecret is readLine without echo. The caller wipes the result.
func readSecret(w io.Writer, label string) ([]byte, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return nil, err
	}
	secret, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// askCredentials prompts for a username and a password. Either one left
// blank yields common.ErrEmptyInput before anything is sent to the server.
func (a *App) askCredentials() (string, []byte, error) {
	username, err := promptLine(a.reader, a.out, "username")
	if err != nil {
		return "", nil, err
	}
	if username == "" {
		return "", nil, common.ErrEmptyInput
	}

	password, err := promptSecret(a.out, "password")
	if err != nil {
		return "", nil, err
	}
	if len(password) == 0 {
		return "", nil, common.ErrEmptyInput
	}
	return username, password, nil
}
