package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/huddle/internal/cli"
	"github.com/julianstephens/huddle/internal/config"
	"github.com/julianstephens/huddle/internal/events"
	"github.com/julianstephens/huddle/internal/keyring"
	"github.com/julianstephens/huddle/internal/logger"
	"github.com/julianstephens/huddle/internal/server"
	"github.com/julianstephens/huddle/internal/service"
	"github.com/julianstephens/huddle/internal/stats"
)

type ServeCmd struct {
	Addr string `help:"Listen address (overrides config)." env:"HUDDLE_ADDR"`
}

func (cmd *ServeCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if cmd.Addr != "" {
		cfg.Addr = cmd.Addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	secret, err := tokenSecret(cfg)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	publisher, err := events.New(events.Options{
		WebhookURL:    cfg.WebhookURL,
		WebhookSecret: cfg.WebhookSecret,
		AMQPURL:       cfg.AMQPURL,
	})
	if err != nil {
		return fmt.Errorf("failed to set up event delivery: %w", err)
	}
	defer publisher.Close()

	svc := service.New(ctx.Store,
		service.WithEngine(stats.NewEngine(loc, time.Now)),
		service.WithPublisher(publisher),
	)
	ctx.SetService(svc)

	srv := server.New(svc, server.Options{
		Addr:        cfg.Addr,
		TokenSecret: secret,
		TokenIssuer: cfg.TokenIssuer,
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   logger.Writer(),
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx.Printf("huddle API listening on %s\n", cfg.Addr)
	return srv.ListenAndServe(runCtx)
}

// tokenSecret prefers the configured secret and falls back to the keyring.
func tokenSecret(cfg *config.Config) (string, error) {
	if cfg.TokenSecret != "" {
		return cfg.TokenSecret, nil
	}
	secret, err := keyring.GetTokenSecret()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", errors.New("no token secret configured: set token_secret, HUDDLE_TOKEN_SECRET, or run 'huddle config set-token-secret'")
		}
		return "", err
	}
	return secret, nil
}
