package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mystopwatch/backend/internal/api"
)

func newWatchCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the live stopwatch display",
		Long: `
The "watch" command follows the backend's websocket stream. On a terminal the
display is redrawn in place, otherwise every event is printed on its own line.
Interrupt with Ctrl-C.
`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inPlace := term.IsTerminal(int(os.Stdout.Fd()))
			return runWatch(cmd.Context(), newClient(opts), cmd.OutOrStdout(), inPlace)
		},
	}
}

func runWatch(ctx context.Context, c *client, out io.Writer, inPlace bool) error {
	streamURL, err := c.StreamURL()
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", streamURL, err)
	}
	defer conn.Close()
	logrus.WithField("url", streamURL).Debug("watching stopwatch")

	defer closeOnCancel(ctx, conn)()

	for {
		var event api.StopwatchEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if inPlace {
					fmt.Fprintln(out)
				}
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
		renderEvent(out, event, inPlace)
	}
}

// closeOnCancel closes c when ctx is cancelled before the returned stop is
// called. stop returns once the watcher goroutine has exited.
func closeOnCancel(ctx context.Context, c io.Closer) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()
	return func() {
		close(done)
		<-exited
	}
}

func renderEvent(out io.Writer, event api.StopwatchEvent, inPlace bool) {
	if inPlace {
		// \r plus clear-to-end-of-line keeps the display on one row
		fmt.Fprintf(out, "\r\x1b[K%s  [%s]", event.Stopwatch.Display, event.Stopwatch.State)
		return
	}
	fmt.Fprintf(out, "%s %s %s\n", event.Type, event.Stopwatch.Display, event.Stopwatch.State)
}

func printStopwatch(out io.Writer, sw api.StopwatchDTO) {
	fmt.Fprintf(out, "%s  %s (next: %s)\n", sw.Display, sw.State, sw.Action)
}
