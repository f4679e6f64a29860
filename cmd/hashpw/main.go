// Command hashpw prints a password hash suitable for seeding users.password_hash,
// e.g. when bootstrapping the first administrator.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/goproj/internal/server/auth"
	"golang.org/x/term"
)

var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

func main() {
	if err := run(os.Stdin, os.Stdout, os.Stderr, int(os.Stdin.Fd())); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(in io.Reader, out, prompt io.Writer, fd int) error {
	password, err := readSecret(in, prompt, fd)
	if err != nil {
		return err
	}
	if err := auth.ValidatePasswordStrength(password); err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

// readSecret reads without echo on a terminal and falls back to the first
// line of input when piped.
func readSecret(in io.Reader, prompt io.Writer, fd int) (string, error) {
	if isTerminal(fd) {
		fmt.Fprint(prompt, "Password: ")
		b, err := readPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}
