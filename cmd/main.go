package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sfproperty/internal/aggregate"
	"sfproperty/internal/config"
	"sfproperty/internal/datasf"
	"sfproperty/internal/listing"
	"sfproperty/internal/logging"
	"sfproperty/internal/store"
	"sfproperty/internal/zoning"
)

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

// app carries what every command needs once the config is loaded.
type app struct {
	configPath string
	logLevel   string
	cfg        config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "sfproperty",
		Short:         "San Francisco property profiles from public records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.LogLevel = a.logLevel
			}
			logging.Configure(cfg.LogLevel, cfg.LogFormat)
			a.cfg = cfg
			cmd.SetContext(logging.WithLogger(cmd.Context(), logging.Default()))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default config.yaml or $CONFIG_PATH)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newServeCmd(a),
		newLookupCmd(a),
		newListingCmd(a),
		newSuggestCmd(a),
		newSavedCmd(a),
	)
	return root
}

func (a *app) client() *datasf.Client {
	opts := []datasf.Option{datasf.WithSuggestURL(a.cfg.SuggestURL)}
	if a.cfg.DataSFAppToken != "" {
		opts = append(opts, datasf.WithAppToken(a.cfg.DataSFAppToken))
	}
	return datasf.New(a.cfg.DataSFBaseURL, a.cfg.DataSFTimeout(), opts...)
}

func (a *app) listings() *listing.Parser {
	return listing.New(a.cfg.ListingTimeout(), a.cfg.UserAgent)
}

// zoningLayer loads the configured shapefiles. A layer that fails to load is
// reported and skipped; zoning then comes from the datasets only.
func (a *app) zoningLayer(ctx context.Context) *zoning.Layer {
	if len(a.cfg.ZoningShapefiles) == 0 {
		return nil
	}
	log := logging.FromContext(ctx)
	proj, err := zoning.ProjectionByName(a.cfg.ZoningProjection)
	if err != nil {
		log.Warn().Err(err).Msg("zoning disabled")
		return nil
	}
	layer, err := zoning.Load(a.cfg.ZoningShapefiles, proj)
	if err != nil {
		log.Warn().Err(err).Msg("zoning disabled")
		return nil
	}
	log.Info().Int("features", layer.Len()).Msg("zoning layer loaded")
	return layer
}

func (a *app) aggregator(ctx context.Context) *aggregate.Aggregator {
	return aggregate.New(a.client(), a.listings(),
		aggregate.WithZoning(a.zoningLayer(ctx)),
		aggregate.Sequential(a.cfg.SequentialQueries))
}

func (a *app) openStore(ctx context.Context) (store.Store, error) {
	s, err := store.Open(ctx, a.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", a.cfg.Store.Driver, err)
	}
	return s, nil
}

// interactive reports whether out and stdin are both a terminal.
func interactive(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}
