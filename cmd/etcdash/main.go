package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/dm/etcd-dash/internal/client"
	"github.com/dm/etcd-dash/internal/config"
	"github.com/dm/etcd-dash/internal/engine"
	"github.com/dm/etcd-dash/internal/tui"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	logOut, closeLog, err := openLogOutput(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	logger := setupLoggerWithWriter(cfg.LogFormat, cfg.Debug, logOut)
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn("config file entry ignored", "file", cfg.ConfigFile, "error", w)
	}

	c, err := client.NewDefaultClient(client.ClientConfig{
		BaseURL:            cfg.URL,
		InsecureSkipVerify: cfg.Insecure,
		CACertFile:         cfg.CACertFile,
		RequestTimeout:     cfg.RequestTimeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Once {
		err = runOnce(ctx, c, os.Stdout)
	} else {
		err = run(ctx, c, cfg, logger)
	}
	if err != nil {
		logger.Error("etcdash exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

// run starts the engine and the TUI, and tears both down when the user quits
// or the process is signalled.
func run(ctx context.Context, c client.ClusterClient, cfg config.Config, logger *slog.Logger) error {
	eng := engine.New(c, engine.Options{
		PollInterval: cfg.Interval,
		Logger:       logger,
	})
	app := tui.NewApp(eng)
	eng.Start()
	defer func() {
		eng.Stop()
		eng.Wait()
	}()

	p := tea.NewProgram(app, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		p.Quit()
		return nil
	})
	return g.Wait()
}

// runOnce fetches the status a single time and prints the endpoint table.
// A failed fetch is returned as an error so scripts see a non-zero exit.
func runOnce(ctx context.Context, c client.ClusterClient, w io.Writer) error {
	snap, err := c.FetchStatus(ctx)
	if err != nil {
		return errors.New(client.UserMessage(err))
	}
	if len(snap) == 0 {
		fmt.Fprintln(w, "no endpoints reported by", c.BaseURL())
		return nil
	}
	fmt.Fprintln(w, tui.EndpointTable(snap, 0).String())
	for _, h := range engine.CalcHints(snap) {
		fmt.Fprintf(w, "%s: %s\n", h.Title, h.Detail)
	}
	return nil
}

// openLogOutput opens path for appending. An empty path discards logs: the
// TUI owns the terminal.
func openLogOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func setupLoggerWithWriter(format string, debug bool, writer io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}
	return slog.New(handler).With("started", time.Now().Format(time.RFC3339))
}
