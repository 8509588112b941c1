package cli

import (
	"fmt"
	"net/url"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newAttachCmd(ctx *context) *cobra.Command {
	var addr string
	var plain bool

	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Follow the live output stream of a running bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := streamAddr(ctx, addr)
			if err != nil {
				return err
			}

			wsURL := url.URL{Scheme: "ws", Host: target, Path: "/ws"}
			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), wsURL.String(), nil)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", wsURL.String(), err)
			}
			defer conn.Close()

			if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
				return streamPlain(cmd, conn)
			}
			return streamInteractive(target, conn)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "bridge address (defaults to the configured listen address)")
	cmd.Flags().BoolVar(&plain, "plain", false, "write raw lines to stdout instead of the interactive view")
	return cmd
}

func streamAddr(ctx *context, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	cfg, err := ctx.loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Listen, nil
}

// streamPlain copies lines to stdout until the stream closes or the command
// context is cancelled.
func streamPlain(cmd *cobra.Command, conn *websocket.Conn) error {
	done := cmd.Context().Done()
	go func() {
		<-done
		_ = conn.Close()
	}()

	out := cmd.OutOrStdout()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				return nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("stream closed: %w", err)
		}
		fmt.Fprintln(out, string(msg))
	}
}

// streamInteractive renders the stream in a scrolling text view. Quit with q,
// Esc or Ctrl-C.
func streamInteractive(target string, conn *websocket.Conn) error {
	app := tview.NewApplication()

	view := tview.NewTextView().
		SetDynamicColors(false).
		SetWrap(false).
		SetScrollable(true)
	view.SetBorder(true).SetTitle(fmt.Sprintf(" mvbridge %s (q to quit) ", target))
	view.SetChangedFunc(func() {
		view.ScrollToEnd()
		app.Draw()
	})

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch {
		case event.Key() == tcell.KeyEscape, event.Key() == tcell.KeyCtrlC:
			app.Stop()
			return nil
		case event.Rune() == 'q':
			app.Stop()
			return nil
		}
		return event
	})

	readErr := make(chan error, 1)
	go func() {
		defer app.Stop()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			line := string(msg)
			app.QueueUpdateDraw(func() {
				fmt.Fprintln(view, line)
			})
		}
	}()

	runErr := app.SetRoot(view, true).Run()
	_ = conn.Close()

	// A read error after the app stopped is our own Close surfacing; the
	// stream ending normally stops the app through the deferred Stop. Either
	// way there is nothing left to report.
	select {
	case <-readErr:
	default:
	}
	return runErr
}
