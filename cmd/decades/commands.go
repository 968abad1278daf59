package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ewilliams-labs/decades/internal/adapters/rest"
	termrender "github.com/ewilliams-labs/decades/internal/adapters/term"
	"github.com/ewilliams-labs/decades/internal/adapters/tui"
	"github.com/ewilliams-labs/decades/internal/adapters/xlsx"
	"github.com/ewilliams-labs/decades/internal/core/ports"
	"github.com/ewilliams-labs/decades/internal/core/presenter"
	"github.com/ewilliams-labs/decades/internal/core/services"
	"github.com/ewilliams-labs/decades/internal/worker"
)

var (
	partitionRemote bool
	exportOut       string
	viewArtist      string
)

var partitionCmd = &cobra.Command{
	Use:   "partition",
	Short: "Split the master table into one shard per decade",
	Long: `Reads the master table, assigns every row to the decade of its year,
verifies that no row was lost, and writes the shards with a manifest.

With --remote the master table is downloaded from remote.url instead of
read from data.master.`,
	Args: cobra.NoArgs,
	RunE: runPartition,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard views over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render every chart of every view to PNG",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

var exportCmd = &cobra.Command{
	Use:   "export [view]",
	Short: "Write a view as an Excel workbook",
	Example: `  decades export 1960s --artist "The Beatles" -o sixties.xlsx
  decades export overview`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var showCmd = &cobra.Command{
	Use:   "show [view]",
	Short: "Print a view to the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the views and pick artists interactively",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the master table to data.master",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

func init() {
	partitionCmd.Flags().BoolVar(&partitionRemote, "remote", false, "Read the master table from remote.url")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Output file (default: <view>.xlsx)")
	exportCmd.Flags().StringVar(&viewArtist, "artist", "", "Artist shown in the artist chart")
	showCmd.Flags().StringVar(&viewArtist, "artist", "", "Artist shown in the artist chart")
}

// withDashboard opens the store, builds the service and closes the store
// once fn returns.
func withDashboard(master ports.MasterSource, fn func(*services.Dashboard) error) error {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	svc, err := newDashboard(cfg, store, master)
	if err != nil {
		return err
	}
	return fn(svc)
}

func runPartition(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	master, err := partitionMaster(ctx, cfg, partitionRemote)
	if err != nil {
		return err
	}

	return withDashboard(master, func(svc *services.Dashboard) error {
		m, err := svc.Partition(ctx)
		if err != nil {
			return err
		}
		for _, e := range m.Shards {
			fmt.Fprintf(cmd.OutOrStdout(), "%-6s %8d rows  %s\n", e.Decade, e.Rows, e.Location)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "total  %8d rows  run %s\n", m.TotalRows(), m.RunID)
		return nil
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withDashboard(nil, func(svc *services.Dashboard) error {
		handler := rest.NewHandler(svc, newRenderer(cfg), xlsx.New(), logger.Named("http"))
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.GetReadHeaderTimeout(),
		}

		serverErr := make(chan error, 1)
		go func() {
			err := srv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
				return
			}
			serverErr <- nil
		}()
		logger.Info("dashboard API listening", zap.String("addr", cfg.Server.Addr))

		select {
		case err := <-serverErr:
			return err
		case <-ctx.Done():
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return <-serverErr
		}
	})
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withDashboard(nil, func(svc *services.Dashboard) error {
		refs, err := svc.Views(ctx)
		if err != nil {
			return err
		}
		pages := make([]presenter.Page, 0, len(refs))
		for _, ref := range refs {
			page, err := svc.View(ctx, ref.ID, "")
			if err != nil {
				return err
			}
			pages = append(pages, page)
		}

		pool := worker.NewPool(newRenderer(cfg), cfg.Render.Workers*2, logger.Named("render"))
		pool.Start(cfg.Render.Workers)
		var submitErr error
		for _, job := range worker.Plan(pages, cfg.Render.Dir) {
			if submitErr = pool.Submit(ctx, job); submitErr != nil {
				break
			}
		}
		if err := errors.Join(submitErr, pool.Stop()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rendered %d charts to %s\n", pool.Rendered(), cfg.Render.Dir)
		return nil
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]
	out := exportOut
	if out == "" {
		out = id + ".xlsx"
	}
	return withDashboard(nil, func(svc *services.Dashboard) error {
		page, err := svc.View(ctx, id, viewArtist)
		if err != nil {
			return err
		}
		f, err := os.CreateTemp(filepath.Dir(out), ".export-*")
		if err != nil {
			return err
		}
		tmp := f.Name()
		defer os.Remove(tmp)
		if err := xlsx.New().Export(f, page); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		if err := os.Rename(tmp, out); err != nil {
			return err
		}
		logger.Info("workbook written", zap.String("view", id), zap.String("path", out))
		return nil
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withDashboard(nil, func(svc *services.Dashboard) error {
		page, err := svc.View(ctx, args[0], viewArtist)
		if err != nil {
			return err
		}
		r, err := termrender.New(cfg.PresenterTheme(), terminalWidth())
		if err != nil {
			return err
		}
		text, err := r.Render(page)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	})
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withDashboard(nil, func(svc *services.Dashboard) error {
		r, err := termrender.New(cfg.PresenterTheme(), terminalWidth()-30)
		if err != nil {
			return err
		}
		return tui.Run(ctx, svc, r)
	})
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newRemote(ctx, cfg)
	if err != nil {
		return err
	}
	rows, err := client.Download(ctx, cfg.Data.Master)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d rows to %s\n", rows, cfg.Data.Master)
	return nil
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
