package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/khanhkom/engz/internal/api"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// executor is what the REPL needs from App.
type executor interface {
	Execute(ctx context.Context, args []string) error
}

// runREPL reads one command per line from reader and runs it until EOF,
// "exit" or "quit". Command errors are printed and the loop goes on.
// Commands that prompt read their answers from the same reader.
func runREPL(ctx context.Context, a executor, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("engz %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		if err := a.Execute(ctx, parts); err != nil {
			printlnFn("Error:", api.Message(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}
