package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	Categories(ctx context.Context, args []string) error
	Summary(ctx context.Context, args []string) error
	Settings(ctx context.Context, args []string) error
	Receipt(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("spend %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: add, (l)ist, del <id>, cat [add|del], summary [yyyy-mm], settings [set], receipt <attach|url> <id>, sync, status, logout, exit")
			} else {
				printlnFn("Available commands: register, login, add, (l)ist, del <id>, cat, summary, settings, status, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "add":
			_ = a.Add(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "del", "delete":
			_ = a.Delete(ctx, args)

		case "cat", "categories":
			_ = a.Categories(ctx, args)

		case "summary":
			_ = a.Summary(ctx, args)

		case "settings":
			_ = a.Settings(ctx, args)

		case "receipt":
			_ = a.Receipt(ctx, args)

		case "sync":
			_ = a.Sync(ctx)

		case "status":
			_ = a.Status(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
