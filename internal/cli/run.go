package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/presentation/tui"
	httpAdapter "github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/adapters/http"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
)

// AskOptions configures a single question.
type AskOptions struct {
	// SessionID groups the turn with earlier ones. Empty starts a new session.
	SessionID string
	// JSON prints the chat response document instead of rendered markdown.
	JSON bool
	// Verbose prints how the pipeline got to its answer.
	Verbose bool
	Out     io.Writer
}

// RunAsk answers one query and prints the result.
func RunAsk(ctx context.Context, app *App, query string, opts AskOptions) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}

	state, err := app.Sessions.Ask(ctx, opts.SessionID, query)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if opts.JSON {
		enc := json.NewEncoder(opts.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(httpAdapter.NewChatResponse(opts.SessionID, state))
	}
	return printState(opts.Out, rendererFor(opts.Out), state, opts.Verbose)
}

func printState(w io.Writer, render tui.Renderer, state *domain.PipelineState, verbose bool) error {
	out, err := render(tui.FormatState(state))
	if err != nil {
		return err
	}
	fmt.Fprint(w, out)
	if verbose {
		fmt.Fprintln(w, tui.Dim(w, tui.FormatSummary(state)))
	}
	return nil
}

// rendererFor picks glamour for terminals and plain markdown otherwise.
func rendererFor(w io.Writer) tui.Renderer {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return tui.Plain
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		width = 0
	}
	r, err := tui.NewRenderer(width)
	if err != nil {
		return tui.Plain
	}
	return r
}
