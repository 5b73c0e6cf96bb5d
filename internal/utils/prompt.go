package utils

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Confirm prints a [y/N] prompt and reads one line from stdin.
// Anything containing a "y" (case-insensitive) counts as yes; everything
// else, including read errors and EOF, counts as no. Without a terminal
// there is nobody to ask, so the default answer stands.
func Confirm(prompt string) bool {
	if !IsInteractiveShell() {
		return false
	}
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(answer), "y")
}
