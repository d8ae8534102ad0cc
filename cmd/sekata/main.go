package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"sekata-go/internal/api"
	"sekata-go/internal/config"
	"sekata-go/internal/game"
	"sekata-go/internal/logging"
	"sekata-go/internal/render"
	"sekata-go/internal/session"
	"sekata-go/internal/state"
	"sekata-go/internal/tracing"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "env: %v\n", err)
		os.Exit(1)
	}

	var (
		server  = flag.String("server", "", "game server URL (overrides SEKATA_SERVER_URL)")
		player  = flag.String("player", "", "player id (overrides SEKATA_PLAYER_ID)")
		logFile = flag.String("log", "sekata-client.log", "log file")
		watch   = flag.Bool("watch", false, "subscribe to server pushes (overrides SEKATA_WATCH)")
	)
	flag.Parse()

	if *server != "" {
		_ = os.Setenv("SEKATA_SERVER_URL", *server)
	}
	cfg, err := config.LoadClientFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *player != "" {
		cfg.PlayerID = *player
	}
	if *watch {
		cfg.Watch = true
	}
	if cfg.PlayerID == "" {
		fmt.Fprintln(os.Stderr, "config: a player id is required (-player or SEKATA_PLAYER_ID)")
		os.Exit(1)
	}

	log, err := logging.New(cfg.AppEnv, *logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log, os.Stdin, os.Stdout); err != nil {
		log.Error("client", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg config.ClientConfig, log *zap.Logger, in io.Reader, w io.Writer) error {
	out := &lockedWriter{w: w}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exporter := os.Getenv("OTEL_TRACES_EXPORTER")
	if exporter == "" || exporter == "stdout" {
		// stdout belongs to the screen.
		exporter = "none"
	}
	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  "sekata-client",
		Environment:  cfg.AppEnv,
		TracesExport: exporter,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	client := api.New(cfg.ServerURL, api.WithTimeout(cfg.HTTPTimeout), api.WithLogger(log))
	sess := session.New(ctx, client, session.Options{PollInterval: cfg.PollInterval, Log: log})
	defer sess.Close()

	redraw := make(chan struct{}, 1)
	unsubscribe := watchStore(sess.Store(), redraw)
	defer unsubscribe()

	done := make(chan struct{})
	var wg sync.WaitGroup
	defer func() {
		close(done)
		wg.Wait()
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case <-redraw:
				v := render.FromStore(sess.Store())
				v.Submitting = sess.Submitting()
				fmt.Fprintf(out, "\n%s\n> ", render.Render(v))
			}
		}
	}()

	sh := &shell{
		sess:      sess,
		playerID:  cfg.PlayerID,
		out:       out,
		log:       log,
		serverURL: cfg.ServerURL,
		watch:     cfg.Watch,
	}
	defer sh.stopWatching()

	fmt.Fprintf(out, "connected to %s as %s. type help for commands.\n", cfg.ServerURL, cfg.PlayerID)
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := sh.exec(ctx, line)
			switch {
			case errors.Is(err, errQuit):
				return nil
			case err != nil:
				log.Debug("command failed", zap.String("line", strings.TrimSpace(line)), zap.Error(err))
				fmt.Fprintf(out, "%s\n> ", describe(err))
			}
		}
	}
}

// watchStore nudges redraw on any store change without blocking the session loop.
func watchStore(st *state.Store, redraw chan<- struct{}) (unsubscribe func()) {
	nudge := func() {
		select {
		case redraw <- struct{}{}:
		default:
		}
	}
	unsubs := []func(){
		st.Snapshot.Subscribe(func(*game.Snapshot) { nudge() }),
		st.Turn.Subscribe(func(game.TurnState) { nudge() }),
		st.Message.Subscribe(func(state.Message) { nudge() }),
		st.GameID.Subscribe(func(string) { nudge() }),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// lockedWriter serialises the screen between the render goroutine and the prompt.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
