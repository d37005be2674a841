package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/presentation/tui"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// ChatOptions configures an interactive session.
type ChatOptions struct {
	SessionID string
	// Fresh clears the stored history of SessionID before starting.
	Fresh   bool
	Verbose bool
	Quiet   bool
	In      io.Reader
	Out     io.Writer
}

// RunChat reads queries line by line until EOF, "exit" or a signal.
// Lines starting with a slash are commands: /history, /reset and /help.
func RunChat(sigCtx *SignalContext, app *App, opts ChatOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	out := opts.Out
	render := rendererFor(out)

	if opts.Fresh {
		if err := app.Sessions.Delete(sigCtx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	if !opts.Quiet {
		tui.PrintBanner(out)
		if conv, err := app.Sessions.History(sigCtx, opts.SessionID); err == nil && len(conv.Turns) > 0 {
			app.Logger.Info("Session Resumed", "session_id", opts.SessionID, "turns", len(conv.Turns))
			printSystemMessage(out, "Resuming session '%s' (%d turns).", opts.SessionID, len(conv.Turns))
		} else {
			app.Logger.Info("Session Created", "session_id", opts.SessionID)
			printSystemMessage(out, "Session '%s' active. Type 'exit' to leave.", opts.SessionID)
		}
	}

	scanner := bufio.NewScanner(NewInterruptibleReader(opts.In, sigCtx.Done()))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if !opts.Quiet {
			fmt.Fprint(out, tui.Prompt(out))
		}
		if !scanner.Scan() {
			err := scanner.Err()
			if err == nil || isInterrupted(err) {
				if sigCtx.Signal() == os.Interrupt {
					fmt.Fprintln(out, "[CTRL+C]")
				}
				if !opts.Quiet {
					printSystemMessage(out, "Bye!")
				}
				return nil
			}
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			if !opts.Quiet {
				printSystemMessage(out, "Bye!")
			}
			return nil
		case strings.HasPrefix(line, "/"):
			if err := runCommand(sigCtx, app, opts.SessionID, line, out); err != nil {
				printSystemMessage(out, "%v", err)
			}
			continue
		}

		state, err := app.Sessions.Ask(sigCtx, opts.SessionID, line)
		if err != nil {
			if isInterrupted(err) {
				return nil
			}
			printSystemMessage(out, "Error: %v", err)
			continue
		}
		if err := printState(out, render, state, opts.Verbose); err != nil {
			return err
		}
	}
}

func runCommand(sigCtx *SignalContext, app *App, sessionID, line string, out io.Writer) error {
	switch strings.Fields(line)[0] {
	case "/history":
		conv, err := app.Sessions.History(sigCtx, sessionID)
		if errors.Is(err, domain.ErrSessionNotFound) {
			printSystemMessage(out, "No history yet.")
			return nil
		}
		if err != nil {
			return err
		}
		for i, t := range conv.Turns {
			fmt.Fprintf(out, "%d. [%s] %s\n", i+1, t.Intent, t.Query)
		}
		return nil
	case "/reset":
		if err := app.Sessions.Delete(sigCtx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		printSystemMessage(out, "Session '%s' cleared.", sessionID)
		return nil
	case "/help":
		printSystemMessage(out, "Commands: /history, /reset, /help, exit")
		return nil
	}
	return fmt.Errorf("unknown command %q", line)
}
