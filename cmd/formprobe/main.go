// File: cmd/formprobe/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/xkilldash9x/formprobe/cmd"
	"github.com/xkilldash9x/formprobe/internal/observability"
)

const panicLogFile = "panic.log"

// Function variables so the panic path can be tested.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
)

func main() {
	defer handlePanic()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			osExit(0)
			return
		}
		osExit(1)
	}
}

// handlePanic writes the panic and its stack to panic.log and exits non-zero.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(2)
		return
	}
	fmt.Fprintf(os.Stderr, "formprobe crashed. Details logged to %s\n", panicLogFile)
	osExit(2)
}
