package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL drives. App satisfies it;
// tests use a stub.
type execIface interface {
	List(ctx context.Context) error
	Open(ctx context.Context, arg string) error
	Collapse(arg string) error
	Pending(ctx context.Context) error
	Export(ctx context.Context, path string) error
}

const helpText = "Available commands: (l)ist, open N, close N, pending, export [file], exit"

// runREPL reads commands from in until EOF, "exit"/"quit", or ctx is
// done. Handler errors are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "vk (%s)> ", statusFn())
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(out, helpText)

		case "l", "list":
			_ = a.List(ctx)

		case "open", "close":
			if len(args) == 0 {
				fmt.Fprintf(out, "Usage: %s N\n", cmd)
				continue
			}
			if cmd == "open" {
				_ = a.Open(ctx, args[0])
			} else {
				_ = a.Collapse(args[0])
			}

		case "pending":
			_ = a.Pending(ctx)

		case "export":
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			_ = a.Export(ctx, path)

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}
	}
}
