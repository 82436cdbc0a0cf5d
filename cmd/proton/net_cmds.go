package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	proton "github.com/starfederation/proton-go"
	"github.com/starfederation/proton-go/internal/config"
	"github.com/starfederation/proton-go/internal/logging"
	"github.com/starfederation/proton-go/transport"
)

type serveCmd struct {
	Config string `short:"c" type:"existingfile" help:"TOML config file." env:"PROTON_CONFIG"`
	Addr   string `help:"Listen address, overrides the config file."`
}

func (c *serveCmd) Run(rc *runContext) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	log := logging.New(rc.stderr, "proton-serve", cfg.Log)

	srv := transport.NewServer(transport.ServerOptions{
		Addr:         cfg.Server.Addr,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		MaxDepth:     cfg.Codec.MaxDepth,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		H2C:          cfg.Server.H2C,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("h2c", cfg.Server.H2C).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGraceDuration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type sendCmd struct {
	URL     string        `arg:"" help:"Endpoint URL, for example http://localhost:8080/echo."`
	In      string        `arg:"" optional:"" default:"-" help:"JSON document, - for stdin."`
	Indent  bool          `help:"Indent JSON output."`
	Timeout time.Duration `default:"10s" help:"Request timeout."`
}

func (c *sendCmd) Run(rc *runContext) error {
	data, err := readText(rc, c.In)
	if err != nil {
		return err
	}
	v, err := proton.FromJSON(data)
	if err != nil {
		return err
	}
	client := transport.NewClient(c.URL)
	client.Logger = rc.log

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	resp, err := client.Post(ctx, "", v)
	if err != nil {
		return err
	}
	out, err := render(resp, "json", c.Indent)
	if err != nil {
		return err
	}
	_, err = rc.stdout.Write(out)
	return err
}
