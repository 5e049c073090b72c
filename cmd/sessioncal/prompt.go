package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"sessioncal/internal/auth"
	appLog "sessioncal/internal/log"
)

// terminalConfirm asks a y/N question on the controlling terminal.
// Without a terminal on stdin every question is declined.
type terminalConfirm struct {
	in  *os.File
	out io.Writer
}

func (t terminalConfirm) Confirm(prompt string) bool {
	if !term.IsTerminal(int(t.in.Fd())) {
		appLog.Warn("no terminal to confirm on; pass -yes to proceed", "prompt", prompt)
		return false
	}
	return askYesNo(t.in, t.out, prompt)
}

func askYesNo(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// runHashPassword prints an Argon2id hash to paste into basic_auth.password_hash.
func runHashPassword(args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sessioncal hash-password\n\n")
		fmt.Fprintf(os.Stderr, "Prompts for a password and prints its Argon2id hash for basic_auth.password_hash.\n")
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := readPassword("Enter password:   ")
	if err != nil {
		return err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
