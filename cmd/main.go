// Command bazar serves marketplace asset and profile views backed by AO processes.
//
// Usage:
//
//	bazar [serve] --config bazar.yaml
//	bazar setup [output.yaml]
//	bazar asset <asset-id> [--tab owners] [flags]
//	bazar profile <address> [--tab collections] [flags]
//
// Optional environment variables:
//
//	BAZAR_RELAY_TOKEN: bearer token for the message relay
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bazar/config"
	"github.com/vadiminshakov/bazar/internal/clients"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/render"
	"github.com/vadiminshakov/bazar/internal/services/aggregator"
	"github.com/vadiminshakov/bazar/internal/services/assetview"
	"github.com/vadiminshakov/bazar/internal/services/profileview"
	"github.com/vadiminshakov/bazar/internal/setup"
	"github.com/vadiminshakov/bazar/internal/storage/journal"
	"github.com/vadiminshakov/bazar/internal/store"
	"github.com/vadiminshakov/bazar/internal/web"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !isFlag(args[0]) {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "serve":
		err = serve(ctx, args)
	case "setup":
		output := setup.DefaultOutput
		if len(args) > 0 {
			output = args[0]
		}
		err = setup.RunTUI(output)
	case "asset":
		err = showAsset(ctx, args)
	case "profile":
		err = showProfile(ctx, args)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		log.Fatal(err)
	}
}

type app struct {
	cfg      config.Config
	logger   *zap.Logger
	wal      *journal.WALStore
	store    *store.Store
	provider *aggregator.Provider
	registry *clients.RegistryClient
	sessions *assetview.Manager
	profiles *profileview.Service
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	var j store.Journal
	if cfg.JournalDir != "" {
		wal, err := journal.NewWALStore(cfg.JournalDir)
		if err != nil {
			return nil, errors.Wrap(err, "open store journal")
		}
		a.wal = wal
		j = wal
	}
	a.store = store.New(j, logger)

	ao, err := clients.NewAOClient(clients.AOConfig{
		ComputeUnitURL: cfg.ComputeUnitURL,
		Timeout:        cfg.GatewayTimeout,
		ReadsPerSecond: cfg.ReadsPerSecond,
		Retries:        cfg.GatewayRetries,
	}, logger)
	if err != nil {
		return nil, err
	}

	var relay clients.Relay
	if cfg.RelayURL != "" {
		relay = clients.NewRelayClient(cfg.RelayURL, cfg.RelayToken, cfg.GatewayTimeout, logger)
	}

	a.registry = clients.NewRegistryClient(ao, cfg.Processes.Registry)
	a.provider = aggregator.NewProvider(aggregator.Config{
		MarketProcess:   cfg.Processes.Market,
		RewardsToken:    cfg.Processes.Rewards,
		DefaultToken:    cfg.Processes.DefaultToken,
		RefreshInterval: cfg.RefreshInterval,
	}, ao, clients.NewStampsClient(ao, cfg.Processes.Stamps), a.store, logger)

	a.sessions = assetview.NewManager(assetview.Config{
		MarketProcess: cfg.Processes.Market,
		EscrowAddress: cfg.EscrowAddress,
		IdleTimeout:   cfg.SessionIdleTimeout,
	}, clients.NewAssetClient(ao), a.registry, a.store, a.provider, relay, logger)

	a.profiles = profileview.NewService(a.registry, a.provider, a.store, relay, profileview.HeaderOptions{
		GatewayURL:    cfg.GatewayURL,
		DefaultBanner: cfg.DefaultBanner,
	}, logger)

	return a, nil
}

// loadViewer resolves the configured viewer and its profile.
func (a *app) loadViewer(ctx context.Context) {
	viewer := domain.Viewer{WalletAddress: a.cfg.ViewerWallet, ProfileID: a.cfg.ViewerProfileID}
	if viewer.ProfileID != "" {
		profile, err := a.registry.GetProfileByID(ctx, viewer.ProfileID)
		if err != nil {
			a.logger.Warn("failed to load viewer profile", zap.String("profile", viewer.ProfileID), zap.Error(err))
		} else {
			viewer.Profile = &profile
		}
	}
	a.provider.SetViewer(viewer)
}

func (a *app) close() {
	if a.wal != nil {
		if err := a.wal.Close(); err != nil {
			a.logger.Warn("failed to close store journal", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func serve(ctx context.Context, args []string) error {
	cfg, err := config.Get(args)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	a.loadViewer(ctx)

	deps := web.Deps{
		Status:   a.provider,
		State:    a.store,
		Sessions: a.sessions,
		Profiles: a.profiles,
	}
	if a.wal != nil {
		deps.Journal = a.wal
	}
	server := web.NewServer(cfg.ListenAddr, deps, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.provider.Run(ctx) })
	g.Go(func() error { return a.sessions.Run(ctx) })
	g.Go(func() error {
		if len(cfg.TLSDomains) > 0 {
			return server.StartWithAutoTLS(ctx, cfg.TLSDomains, cfg.CertCacheDir)
		}
		return server.Start(ctx)
	})

	return g.Wait()
}

// oneShot builds the app for a terminal command with the store warmed up once.
func oneShot(ctx context.Context, name string, args []string) (*app, string, string, error) {
	if len(args) == 0 || isFlag(args[0]) {
		return nil, "", "", fmt.Errorf("usage: bazar %s <id> [--tab name] [flags]", name)
	}
	id, rest := args[0], args[1:]

	// everything except --tab is passed to the config flags
	var (
		tab     string
		cfgArgs []string
	)
	for i := 0; i < len(rest); i++ {
		if rest[i] == "--tab" || rest[i] == "-tab" {
			if i+1 < len(rest) {
				tab = rest[i+1]
				i++
			}
			continue
		}
		cfgArgs = append(cfgArgs, rest[i])
	}

	cfg, err := config.Get(cfgArgs)
	if err != nil {
		return nil, "", "", err
	}
	cfg.JournalDir = ""
	cfg.RefreshInterval = 0

	logger := zap.NewNop()
	if os.Getenv("BAZAR_DEBUG") != "" {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, "", "", err
		}
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return nil, "", "", err
	}
	a.loadViewer(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { a.provider.RefreshMarket(gctx); return nil })
	g.Go(func() error { a.provider.RefreshStreaks(gctx); return nil })
	g.Go(func() error { a.provider.RefreshCurrencies(gctx); return nil })
	_ = g.Wait()
	a.provider.RefreshStamps(ctx)

	return a, id, tab, nil
}

func showAsset(ctx context.Context, args []string) error {
	a, id, tab, err := oneShot(ctx, "asset", args)
	if err != nil {
		return err
	}
	defer a.close()

	snap, err := a.sessions.Open(ctx, id)
	if err != nil {
		return err
	}
	if tab != "" {
		t, err := assetview.ParseTab(tab)
		if err != nil {
			return err
		}
		if snap, err = a.sessions.SelectTab(snap.SessionID, t); err != nil {
			return err
		}
	}

	fmt.Println(render.AssetView(snap))
	fmt.Println()
	fmt.Println(render.Status(a.provider.Status()))
	return nil
}

func showProfile(ctx context.Context, args []string) error {
	a, address, tab, err := oneShot(ctx, "profile", args)
	if err != nil {
		return err
	}
	defer a.close()

	if tab == "" {
		tab = string(profileview.TabAssets)
	}
	page, err := a.profiles.Page(ctx, address, tab, true)
	if err != nil {
		return err
	}
	if page.Route.Redirect != "" {
		return fmt.Errorf("invalid profile address %q", address)
	}

	fmt.Println(render.Profile(page))
	return nil
}

func isFlag(s string) bool {
	return len(s) > 0 && s[0] == '-'
}
