package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/NdanyuzweGentil/cycling-dashboard/internal/config"
	"github.com/NdanyuzweGentil/cycling-dashboard/internal/dataset"
	"github.com/NdanyuzweGentil/cycling-dashboard/internal/logging"
	"github.com/NdanyuzweGentil/cycling-dashboard/internal/server"
	"github.com/NdanyuzweGentil/cycling-dashboard/internal/store"
	"github.com/NdanyuzweGentil/cycling-dashboard/internal/watch"
)

var (
	serveAddr    string
	serveFile    string
	serveWatch   bool
	serveOpenWeb bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard web server",
	Long: `Serve starts the dashboard HTTP server. With --file the given ride file
is loaded at startup; otherwise the bundled sample dataset is shown until
data is uploaded. --watch reloads the file whenever it changes on disk.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}
		if cmd.Flags().Changed("file") {
			cfg.Data.File = serveFile
		}
		if cmd.Flags().Changed("watch") {
			cfg.Data.Watch = serveWatch
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "listen address")
	serveCmd.Flags().StringVar(&serveFile, "file", "", "ride file to load at startup")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the ride file when it changes")
	serveCmd.Flags().BoolVar(&serveOpenWeb, "open", false, "open the dashboard in the default browser")
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg *config.Config) error {
	log := logging.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New()
	if cfg.Data.File != "" {
		t, err := dataset.LoadFile(cfg.Data.File, nil)
		if err != nil {
			return fmt.Errorf("loading %s: %w", cfg.Data.File, err)
		}
		t = dataset.Expand(t)
		st.Replace(t)
		log.Info().Str("file", cfg.Data.File).Int("records", t.NumRows()).Msg("dataset loaded")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(st, cfg.Server.MaxUploadBytes).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.Server.Addr).Msg("dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Data.Watch {
		watcher := watch.New(cfg.Data.File, st, nil)
		g.Go(func() error {
			return watcher.Run(gCtx)
		})
	}

	if serveOpenWeb {
		if err := browser.OpenURL(dashboardURL(cfg.Server.Addr)); err != nil {
			log.Warn().Err(err).Msg("opening browser")
		}
	}

	return g.Wait()
}

// dashboardURL turns a listen address into something a browser can open.
func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
