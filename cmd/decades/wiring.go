package main

import (
	"context"
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"github.com/ewilliams-labs/decades/internal/adapters/csvstore"
	"github.com/ewilliams-labs/decades/internal/adapters/narrative"
	"github.com/ewilliams-labs/decades/internal/adapters/remote"
	"github.com/ewilliams-labs/decades/internal/adapters/render"
	"github.com/ewilliams-labs/decades/internal/adapters/sqlite"
	"github.com/ewilliams-labs/decades/internal/config"
	"github.com/ewilliams-labs/decades/internal/core/ports"
	"github.com/ewilliams-labs/decades/internal/core/services"
)

// openStore opens the configured shard store. The returned closer is never nil.
func openStore(c *config.Config) (ports.ShardStore, func() error, error) {
	switch c.Data.Driver {
	case "sqlite":
		a, err := sqlite.NewAdapter(c.Data.SQLitePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return a, a.Close, nil
	case "csv":
		codec, err := csvstore.CodecFor(c.Data.Codec)
		if err != nil {
			return nil, nil, err
		}
		s := csvstore.New(c.Data.Master, c.Data.ShardDir,
			csvstore.WithCodec(codec),
			csvstore.WithParallelism(c.Data.Parallelism),
			csvstore.WithLogger(logger))
		return s, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", c.Data.Driver)
	}
}

func newRemote(ctx context.Context, c *config.Config) (*remote.Client, error) {
	return remote.NewClient(ctx, remote.Config{
		URL:          c.Remote.URL,
		TokenURL:     c.Remote.TokenURL,
		ClientID:     c.Remote.ClientID,
		ClientSecret: c.Remote.ClientSecret,
		Scopes:       c.Remote.Scopes,
		MaxRetries:   c.Remote.MaxRetries,
		Backoff:      c.GetRemoteBackoff(),
		Timeout:      c.GetRemoteTimeout(),
	}, logger.Named("remote"))
}

// partitionMaster picks the input of a partitioning run: the remote
// endpoint when asked for, the data.master file for the sqlite driver, and
// nil (the store's own master) for the csv driver.
func partitionMaster(ctx context.Context, c *config.Config, fromRemote bool) (ports.MasterSource, error) {
	switch {
	case fromRemote:
		client, err := newRemote(ctx, c)
		if err != nil {
			return nil, err
		}
		return client, nil
	case c.Data.Driver == "sqlite":
		return csvstore.New(c.Data.Master, "", csvstore.WithLogger(logger)), nil
	default:
		return nil, nil
	}
}

// newDashboard wires the service. master may be nil to partition from the
// store's own master table.
func newDashboard(c *config.Config, store ports.ShardStore, master ports.MasterSource) (*services.Dashboard, error) {
	text, err := narrative.Load(c.Narrative.Path)
	if err != nil {
		return nil, err
	}
	return services.NewDashboard(store, store, text, services.Options{
		Rank:   c.Rank(),
		Theme:  c.PresenterTheme(),
		Source: filepath.Base(c.Data.Master),
		Master: master,
		Logger: logger.Named("dashboard"),
	}), nil
}

func newRenderer(c *config.Config) *render.Renderer {
	return render.New(c.PresenterTheme(),
		render.WithSize(vg.Length(c.Render.Width)*vg.Inch, vg.Length(c.Render.Height)*vg.Inch))
}
