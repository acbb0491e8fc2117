// Command boardctl moves layers between a shared board and the system
// clipboard.
//
//	boardctl new
//	boardctl copy  -server http://localhost:8080 -board board_...
//	boardctl paste -server http://localhost:8080 -board board_... [-x 100 -y 100]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dedbin/rimo/internal/asset"
	"github.com/dedbin/rimo/internal/board"
	"github.com/dedbin/rimo/internal/canvas"
	"github.com/dedbin/rimo/internal/clipboard"
	"github.com/dedbin/rimo/internal/collab"
	"github.com/dedbin/rimo/internal/config"
	"github.com/dedbin/rimo/internal/presence"
	"github.com/dedbin/rimo/internal/preview"
	"github.com/dedbin/rimo/internal/store"
	"github.com/dedbin/rimo/internal/typeid"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: boardctl new|copy|paste [flags]")
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch args[0] {
	case "new":
		fmt.Println(typeid.NewBoardID())
		return 0
	case "copy":
		err = copyBoard(ctx, args[1:])
	case "paste":
		err = pasteIntoBoard(ctx, args[1:])
	default:
		err = fmt.Errorf("unknown command %q", args[0])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "boardctl: %v\n", err)
		return 1
	}
	return 0
}

type target struct {
	server  string
	boardID string
	timeout time.Duration
}

func (t target) wsURL() string {
	return "ws" + strings.TrimPrefix(t.server, "http") + "/ws/board/" + t.boardID
}

func parseTarget(fs *flag.FlagSet, args []string) (target, error) {
	var t target
	fs.StringVar(&t.server, "server", "http://localhost:8080", "board server URL")
	fs.StringVar(&t.boardID, "board", "", "board id")
	fs.DurationVar(&t.timeout, "timeout", 10*time.Second, "connect and sync timeout")
	if err := fs.Parse(args); err != nil {
		return t, err
	}
	t.server = strings.TrimRight(t.server, "/")
	if err := typeid.Validate(t.boardID, typeid.PrefixBoard); err != nil {
		return t, err
	}
	return t, nil
}

func join(ctx context.Context, t target, st *store.Memory, p *presence.Local) (*collab.Remote, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return collab.Dial(ctx, t.wsURL(), st, p, slog.Default())
}

// copyBoard puts every layer of the board on the system clipboard.
func copyBoard(ctx context.Context, args []string) error {
	t, err := parseTarget(flag.NewFlagSet("copy", flag.ContinueOnError), args)
	if err != nil {
		return err
	}

	st := store.NewMemory(0)
	remote, err := join(ctx, t, st, presence.NewLocal())
	if err != nil {
		return err
	}
	defer remote.Close()

	layers := st.Snapshot().Ordered()
	if len(layers) == 0 {
		return errors.New("board is empty")
	}
	text, err := clipboard.Encode(layers)
	if err != nil {
		return err
	}
	if err := (clipboard.System{}).WriteText(text); err != nil {
		return err
	}
	fmt.Printf("copied %d layers\n", len(layers))
	return nil
}

// pasteIntoBoard pastes the system clipboard into the board the same way the
// canvas does: layers beside their source, links as previews, text as a
// text layer at the given position.
func pasteIntoBoard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("paste", flag.ContinueOnError)
	x := fs.Float64("x", 100, "world x for text and links")
	y := fs.Float64("y", 100, "world y for text and links")
	t, err := parseTarget(fs, args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadCanvas()
	if err != nil {
		return fmt.Errorf("load canvas config: %w", err)
	}

	st := store.NewMemory(cfg.HistoryLimit)
	local := presence.NewLocal()
	remote, err := join(ctx, t, st, local)
	if err != nil {
		return err
	}
	defer remote.Close()

	eng := canvas.New(canvas.Options{
		Config:    cfg,
		Store:     st,
		Presence:  local,
		Clipboard: clipboard.System{},
		Previews:  preview.NewClient(t.server+"/preview", http.DefaultClient),
		Uploader:  asset.NewClient(t.server+"/assets/upload", http.DefaultClient),
	})
	defer eng.Close()

	at := board.Point{X: *x, Y: *y}
	local.Update(func(s *presence.State) { s.Cursor = &at }, presence.Options{})

	before := st.Layers().Len()
	if err := eng.PasteFromClipboard(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	for st.Layers().Len() == before {
		// Links resolve asynchronously; wait for the preview to land.
		if err := eng.WaitPending(ctx); err != nil {
			return fmt.Errorf("nothing was pasted: %w", err)
		}
		for _, n := range eng.Notices() {
			if n.Level == canvas.NoticeError {
				return errors.New(n.Message)
			}
		}
	}

	for remote.Pending() > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for the server: %w", ctx.Err())
		case <-remote.Done():
			return fmt.Errorf("connection lost: %w", remote.Err())
		case <-time.After(20 * time.Millisecond):
		}
	}
	fmt.Printf("pasted %d layers\n", st.Layers().Len()-before)
	return nil
}
