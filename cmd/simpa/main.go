// simpa — консольный клиент SIMPA для техников: вход, навигация по
// объектам, отправка записи обслуживания и история. Результаты печатаются
// в stdout как JSON, логи пишутся в stderr.
//
// Коды выхода: 0 — успех, 1 — ошибка, 2 — нужен повторный вход.
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

	"github.com/pribylovaa/simpa-client/internal/apiclient"
	"github.com/pribylovaa/simpa-client/internal/config"
	"github.com/pribylovaa/simpa-client/internal/credentials"
	"github.com/pribylovaa/simpa-client/internal/service"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const (
	exitOK     = 0
	exitErr    = 1
	exitReauth = 2
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("simpa", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to config file")
	fs.Usage = func() { usage(stderr) }

	if err := fs.Parse(args); err != nil {
		return exitErr
	}

	if fs.NArg() == 0 {
		usage(stderr)
		return exitErr
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", fs.Arg(0))
		usage(stderr)
		return exitErr
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return exitErr
	}

	log := setupLogger(cfg.Env, stderr)
	slog.SetDefault(log)

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Error("store_init_failed", slog.String("err", err.Error()))
		return exitErr
	}
	defer closeStore()

	client, err := apiclient.New(store, apiclient.Options{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout,
		UserAgent:       cfg.API.UserAgent,
		CoalesceRefresh: cfg.API.CoalesceRefresh,
		Logger:          log,
	})
	if err != nil {
		log.Error("client_init_failed", slog.String("err", err.Error()))
		return exitErr
	}

	a := &app{
		svc:    service.New(client, store, cfg.API.AllowedRole),
		stdout: stdout,
		stderr: stderr,
	}

	if err := cmd(ctx, a, fs.Args()[1:]); err != nil {
		return report(stderr, err)
	}

	return exitOK
}

// report печатает ошибку и выбирает код выхода.
func report(w io.Writer, err error) int {
	switch {
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case apiclient.ReauthRequired(err):
		fmt.Fprintln(w, "session expired, please log in again: simpa login -u <username>")
		return exitReauth
	case errors.Is(err, apiclient.ErrUnauthorized):
		fmt.Fprintln(w, "access denied by server even after token refresh")
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w, "interrupted")
	case errors.Is(err, apiclient.ErrTimeout):
		fmt.Fprintln(w, "request timed out, check your connection")
	case errors.Is(err, service.ErrInvalidCredentials):
		fmt.Fprintln(w, "login failed: invalid username or password")
	case errors.Is(err, service.ErrRoleNotAllowed):
		fmt.Fprintln(w, "login failed: this account is not a technician account")
	default:
		fmt.Fprintln(w, "error:", err)
	}

	return exitErr
}

// openStore выбирает хранилище учётных данных по конфигу.
func openStore(ctx context.Context, cfg config.StoreConfig) (credentials.Store, func(), error) {
	noop := func() {}

	switch cfg.Driver {
	case "redis":
		st, err := credentials.NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, noop, err
		}
		return st, func() { _ = st.Close() }, nil
	case "memory":
		return credentials.NewMemoryStore(), noop, nil
	default:
		st, err := credentials.NewFileStore(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return st, noop, nil
	}
}

func setupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: simpa [--config path] <command> [flags]

commands:
  login      -u username [-p password]   (password may come from SIMPA_PASSWORD)
  logout
  status
  projects
  buildings  -project ID
  rooms      -project ID -building ID
  units      -room ID
  variables  [-kategori indoor|outdoor]
  submit     -unit ID [-kategori K] [-inspect ID=VALUE,...] [-clean ID=BEFORE:AFTER,...]
             -before photo.jpg -after photo.jpg
  history    -project ID [-start YYYY-MM-DD -end YYYY-MM-DD] [-page N] [-per-page N]
`)
}
