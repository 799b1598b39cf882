package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// promptPassword reads a password either as the first line of stdin or,
// on a terminal, twice without echo.
func promptPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		pw := strings.TrimRight(line, "\r\n")
		if pw == "" {
			return "", oops.Code("PASSWORD_EMPTY").Errorf("no password on stdin")
		}
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", oops.Code("PASSWORD_READ_FAILED").
			Hint("use --password-stdin when not running on a terminal").
			Errorf("stdin is not a terminal")
	}

	read := func(prompt string) (string, error) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		pw, err := readPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		return string(pw), nil
	}

	first, err := read("Password: ")
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", oops.Code("PASSWORD_EMPTY").Errorf("password cannot be empty")
	}
	second, err := read("Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", oops.Code("PASSWORD_MISMATCH").Errorf("passwords do not match")
	}
	return first, nil
}
