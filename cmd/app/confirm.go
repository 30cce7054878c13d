package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
)

// confirm prints warning and asks the operator to go on. Only "y" or "yes"
// (any case) accepts; anything else, including EOF, cancels.
func confirm(in io.Reader, out io.Writer, warning string) error {
	fmt.Fprintln(out, warning)
	fmt.Fprint(out, "continue? (y/n): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	}
	return &domain.UserCancelledError{}
}
