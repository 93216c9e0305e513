/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Seednode/partybox-client/client"
	"github.com/Seednode/partybox-client/store"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// tokenLocation keeps profiles apart when the default file is in use.
func tokenLocation(cfg *Config) string {
	if cfg.tokenStore == store.DefaultPath() && cfg.profileName != "" && cfg.profileName != "default" {
		return cfg.tokenStore + "." + cfg.profileName
	}

	return cfg.tokenStore
}

func run(ctx context.Context, cfg *Config) (err error) {
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	log.Infof("START: partybox-client v%s", releaseVersion)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, tokenLocation(cfg), cfg.profileName)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, store.Close(st)) }()

	c, err := client.New(client.Config{
		URL:            cfg.server,
		ConnectTimeout: cfg.connectTimeout,
		ReconnectDelay: cfg.reconnectDelay,
		InfoDuration:   cfg.infoDuration,
		Tick:           cfg.tick,
		Store:          st,
		Logger:         log,
		Publishers: []client.Publisher{&terminal{
			out:     os.Stdout,
			qr:      cfg.qr,
			joinURL: cfg.joinURL,
			log:     log,
		}},
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.Run(ctx)
	})

	if cfg.port != 0 {
		g.Go(func() error {
			return serveStatus(ctx, cfg, c, log)
		})
	}

	g.Go(func() error {
		return readCommands(ctx, os.Stdin, os.Stdout, c, log)
	})

	err = g.Wait()
	if errors.Is(err, errQuit) {
		err = nil
	}

	return err
}
