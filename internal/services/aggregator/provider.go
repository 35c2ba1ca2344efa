// Package aggregator keeps the cross-cutting store domains fresh.
// Market info, streaks, stamp counts and currency metadata are refreshed by
// independent sequences; each owns its failures and its status record.
package aggregator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bazar/internal/clients"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/metrics"
	"github.com/vadiminshakov/bazar/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type gateway interface {
	Read(ctx context.Context, req clients.ReadRequest) (json.RawMessage, error)
}

type stampService interface {
	GetStamps(ctx context.Context, ids []string) (map[string]domain.StampCount, error)
	HasStamped(ctx context.Context, viewer string, ids []string) (map[string]bool, error)
}

type stateStore interface {
	Dispatch(u store.Update) uint64
	Market() *domain.MarketInfo
	Has(d domain.StoreDomain) bool
	Subscribe() (<-chan domain.StoreDomain, func())
}

// Config holds the process ids and schedule of the provider.
type Config struct {
	MarketProcess string
	RewardsToken  string
	DefaultToken  string
	// RefreshInterval re-triggers market, streak and currency refreshes; zero disables it.
	RefreshInterval time.Duration
}

// Provider runs the background refresh sequences.
type Provider struct {
	cfg     Config
	gateway gateway
	stamps  stampService
	store   stateStore
	logger  *zap.Logger
	now     func() time.Time

	market     task
	streaks    task
	stampsTask task
	currencies task

	viewerMu sync.RWMutex
	viewer   domain.Viewer

	triggers chan domain.StoreDomain
}

// NewProvider creates a new aggregation provider.
func NewProvider(cfg Config, gw gateway, stamps stampService, st stateStore, logger *zap.Logger) *Provider {
	return &Provider{
		cfg:      cfg,
		gateway:  gw,
		stamps:   stamps,
		store:    st,
		logger:   logger.With(zap.String("component", "aggregator")),
		now:      time.Now,
		triggers: make(chan domain.StoreDomain, len(domain.Domains)),
	}
}

// Status returns the status record of every domain.
func (p *Provider) Status() domain.AppStatus {
	return domain.AppStatus{
		Market:     p.market.snapshot(),
		Streaks:    p.streaks.snapshot(),
		Stamps:     p.stampsTask.snapshot(),
		Currencies: p.currencies.snapshot(),
	}
}

// Viewer returns the current viewer identity.
func (p *Provider) Viewer() domain.Viewer {
	p.viewerMu.RLock()
	defer p.viewerMu.RUnlock()
	return p.viewer
}

// SetViewer replaces the viewer identity. When it changed, the previous viewer's
// has-stamped flags are dropped and a stamps refresh is scheduled.
func (p *Provider) SetViewer(v domain.Viewer) {
	p.viewerMu.Lock()
	changed := p.viewer.WalletAddress != v.WalletAddress || p.viewer.ProfileID != v.ProfileID
	p.viewer = v
	p.viewerMu.Unlock()

	if !changed {
		return
	}
	if p.store.Has(domain.DomainStamps) {
		p.store.Dispatch(store.ClearStampChecks{})
	}
	p.Trigger(domain.DomainStamps)
}

// Trigger schedules a refresh of the domain on the running provider.
func (p *Provider) Trigger(d domain.StoreDomain) {
	select {
	case p.triggers <- d:
	default:
	}
}

// Run starts the initial refreshes and reacts to store changes, viewer changes and the refresh ticker until ctx is done.
func (p *Provider) Run(ctx context.Context) error {
	updates, unsubscribe := p.store.Subscribe()
	defer unsubscribe()

	var wg sync.WaitGroup
	spawn := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}
	refresh := func(d domain.StoreDomain) {
		switch d {
		case domain.DomainMarket:
			spawn(p.RefreshMarket)
		case domain.DomainStreaks:
			spawn(p.RefreshStreaks)
		case domain.DomainStamps:
			spawn(p.RefreshStamps)
		case domain.DomainCurrencies:
			spawn(p.RefreshCurrencies)
		}
	}

	refresh(domain.DomainMarket)
	refresh(domain.DomainStreaks)
	refresh(domain.DomainCurrencies)
	if p.store.Has(domain.DomainMarket) {
		refresh(domain.DomainStamps)
	}

	var tick <-chan time.Time
	if p.cfg.RefreshInterval > 0 {
		ticker := time.NewTicker(p.cfg.RefreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case d, ok := <-updates:
			if ok && d == domain.DomainMarket {
				refresh(domain.DomainStamps)
			}
		case d := <-p.triggers:
			refresh(d)
		case <-tick:
			refresh(domain.DomainMarket)
			refresh(domain.DomainStreaks)
			refresh(domain.DomainCurrencies)
		}
	}
}

// RefreshMarket reads the market process Info and replaces the market domain.
func (p *Provider) RefreshMarket(parent context.Context) {
	logger := p.logger.With(zap.String("domain", domain.DomainMarket.String()))
	ctx, gen := p.market.begin(parent)
	defer p.market.done(gen)
	started := p.now()

	info, err := p.fetchMarket(ctx)
	if err != nil {
		p.failed(&p.market, gen, domain.DomainMarket, started, logger, err)
		return
	}

	now := p.now()
	info.LastUpdate = now
	p.finished(&p.market, gen, domain.DomainMarket, started, now, logger, func() {
		p.store.Dispatch(store.SetMarket{Info: info})
	})
}

func (p *Provider) fetchMarket(ctx context.Context) (domain.MarketInfo, error) {
	raw, err := p.gateway.Read(ctx, clients.ReadRequest{ProcessID: p.cfg.MarketProcess, Action: "Info"})
	if err != nil {
		return domain.MarketInfo{}, errors.Wrap(err, "read market info")
	}
	return clients.DecodeMarketInfo(raw)
}

// RefreshStreaks reads Get-Streaks from the rewards process and replaces the streaks domain.
// Identities with zero days are dropped.
func (p *Provider) RefreshStreaks(parent context.Context) {
	logger := p.logger.With(zap.String("domain", domain.DomainStreaks.String()))
	ctx, gen := p.streaks.begin(parent)
	defer p.streaks.done(gen)
	started := p.now()

	streaks, err := p.fetchStreaks(ctx)
	if err != nil {
		p.failed(&p.streaks, gen, domain.DomainStreaks, started, logger, err)
		return
	}

	p.finished(&p.streaks, gen, domain.DomainStreaks, started, p.now(), logger, func() {
		p.store.Dispatch(store.SetStreaks{Streaks: streaks})
	})
}

func (p *Provider) fetchStreaks(ctx context.Context) (map[string]domain.Streak, error) {
	raw, err := p.gateway.Read(ctx, clients.ReadRequest{ProcessID: p.cfg.RewardsToken, Action: "Get-Streaks"})
	if err != nil {
		return nil, errors.Wrap(err, "read streaks")
	}
	streaks, err := clients.DecodeStreaks(raw)
	if err != nil {
		return nil, err
	}

	return DropInactiveStreaks(streaks), nil
}

// DropInactiveStreaks removes identities whose streak is zero days.
func DropInactiveStreaks(streaks map[string]domain.Streak) map[string]domain.Streak {
	out := make(map[string]domain.Streak, len(streaks))
	for id, s := range streaks {
		if s.Days == 0 {
			continue
		}
		out[id] = s
	}
	return out
}

// RefreshStamps fetches stamp counts for every asset in the market order book.
// When the viewer has a wallet and a profile, has-stamped flags are fetched afterwards
// and merged under the same generation.
func (p *Provider) RefreshStamps(parent context.Context) {
	logger := p.logger.With(zap.String("domain", domain.DomainStamps.String()))
	market := p.store.Market()
	if market == nil {
		metrics.RecordRefresh(domain.DomainStamps.String(), metrics.OutcomeSkipped, 0)
		logger.Debug("market info not loaded, stamps refresh skipped")
		return
	}

	ctx, gen := p.stampsTask.begin(parent)
	defer p.stampsTask.done(gen)
	started := p.now()
	ids := market.AssetIDs()

	counts, err := p.stamps.GetStamps(ctx, ids)
	if err != nil {
		p.failed(&p.stampsTask, gen, domain.DomainStamps, started, logger, errors.Wrap(err, "read stamp counts"))
		return
	}

	ok := p.finished(&p.stampsTask, gen, domain.DomainStamps, started, p.now(), logger, func() {
		p.store.Dispatch(store.MergeStamps{Counts: counts})
	})
	if !ok {
		return
	}

	viewer := p.Viewer()
	if !viewer.Authenticated() || len(counts) == 0 {
		return
	}

	checks, err := p.stamps.HasStamped(ctx, viewer.WalletAddress, ids)
	if err != nil {
		if p.stampsTask.current(gen) {
			logger.Error("failed to read has-stamped flags", zap.Error(err))
		}
		return
	}

	applied := p.stampsTask.apply(gen, func() {
		p.store.Dispatch(store.MergeStampChecks{Counts: counts, Checks: checks})
	})
	if !applied {
		logger.Debug("discarded superseded has-stamped flags")
	}
}

// RefreshCurrencies loads the default and rewards token metadata when the store has none.
func (p *Provider) RefreshCurrencies(parent context.Context) {
	logger := p.logger.With(zap.String("domain", domain.DomainCurrencies.String()))
	if p.store.Has(domain.DomainCurrencies) {
		metrics.RecordRefresh(domain.DomainCurrencies.String(), metrics.OutcomeSkipped, 0)
		return
	}

	ctx, gen := p.currencies.begin(parent)
	defer p.currencies.done(gen)
	started := p.now()

	tokens, err := p.fetchCurrencies(ctx)
	if err != nil {
		p.failed(&p.currencies, gen, domain.DomainCurrencies, started, logger, err)
		return
	}

	p.finished(&p.currencies, gen, domain.DomainCurrencies, started, p.now(), logger, func() {
		p.store.Dispatch(store.MergeCurrencies{Tokens: tokens})
	})
}

func (p *Provider) fetchCurrencies(ctx context.Context) (map[string]domain.TokenInfo, error) {
	ids := []string{p.cfg.DefaultToken, p.cfg.RewardsToken}
	infos := make([]domain.TokenInfo, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			raw, err := p.gateway.Read(gctx, clients.ReadRequest{ProcessID: id, Action: "Info"})
			if err != nil {
				return errors.Wrapf(err, "read token info %s", id)
			}
			info, err := clients.DecodeTokenInfo(id, raw)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tokens := make(map[string]domain.TokenInfo, len(infos))
	for _, info := range infos {
		tokens[info.ID] = info
	}
	return tokens, nil
}

func (p *Provider) finished(t *task, gen uint64, d domain.StoreDomain, started, now time.Time, logger *zap.Logger, dispatch func()) bool {
	if !t.succeed(gen, now, dispatch) {
		metrics.RecordRefresh(d.String(), metrics.OutcomeSuperseded, 0)
		logger.Debug("discarded superseded refresh result")
		return false
	}
	metrics.RecordRefresh(d.String(), metrics.OutcomeSuccess, now.Sub(started))
	logger.Debug("refresh completed")
	return true
}

func (p *Provider) failed(t *task, gen uint64, d domain.StoreDomain, started time.Time, logger *zap.Logger, err error) {
	if !t.fail(gen) {
		metrics.RecordRefresh(d.String(), metrics.OutcomeSuperseded, 0)
		logger.Debug("superseded refresh failed", zap.Error(err))
		return
	}
	metrics.RecordRefresh(d.String(), metrics.OutcomeFailure, p.now().Sub(started))
	logger.Error("refresh failed", zap.Error(err))
}
