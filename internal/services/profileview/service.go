// Package profileview loads profiles for the profile page and derives its header.
package profileview

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bazar/internal/clients"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/store"
	"go.uber.org/zap"
)

// DefaultGatewayURL serves transaction data such as avatars and banners.
const DefaultGatewayURL = "https://arweave.net"

var (
	// ErrInvalidAddress is returned for malformed profile addresses.
	ErrInvalidAddress = errors.New("invalid profile address")
	// ErrNotViewerProfile is returned when someone else's profile is edited.
	ErrNotViewerProfile = errors.New("profile does not belong to the viewer")
)

type profileReader interface {
	GetProfileByID(ctx context.Context, profileID string) (domain.Profile, error)
}

type viewerSource interface {
	Viewer() domain.Viewer
}

type stateSource interface {
	Snapshot() store.State
}

type relay interface {
	Send(ctx context.Context, msg clients.Message) (string, error)
}

// Page is everything the profile page needs.
type Page struct {
	Route   Route          `json:"route"`
	Profile domain.Profile `json:"profile"`
	Header  Header         `json:"header"`
	Tabs    []TabLink      `json:"tabs"`
}

// Service builds profile pages.
type Service struct {
	profiles profileReader
	viewer   viewerSource
	state    stateSource
	relay    relay
	opts     HeaderOptions
	logger   *zap.Logger
}

// NewService creates a new profile service. relay may be nil, which disables profile updates.
func NewService(profiles profileReader, viewer viewerSource, state stateSource, r relay, opts HeaderOptions, logger *zap.Logger) *Service {
	if opts.GatewayURL == "" {
		opts.GatewayURL = DefaultGatewayURL
	}
	return &Service{
		profiles: profiles,
		viewer:   viewer,
		state:    state,
		relay:    r,
		opts:     opts,
		logger:   logger.With(zap.String("component", "profileview")),
	}
}

// Load returns the profile behind the address.
// The viewer's own profile is reused without a remote read.
func (s *Service) Load(ctx context.Context, address string) (domain.Profile, error) {
	route := ResolveRoute(address, string(TabAssets))
	if route.Redirect == NotFoundPath {
		return domain.Profile{}, errors.Wrapf(ErrInvalidAddress, "%q", address)
	}

	viewer := s.viewer.Viewer()
	if viewer.Profile != nil && viewer.Profile.ID != "" && viewer.Profile.ID == route.Address {
		return *viewer.Profile, nil
	}

	profile, err := s.profiles.GetProfileByID(ctx, route.Address)
	if err != nil {
		return domain.Profile{}, errors.Wrapf(err, "load profile %s", route.Address)
	}
	return profile, nil
}

// Page resolves the route and loads the page. A route with a redirect is returned without a profile.
func (s *Service) Page(ctx context.Context, address, tab string, showFullBio bool) (Page, error) {
	route := ResolveRoute(address, tab)
	if route.Redirect != "" {
		return Page{Route: route}, nil
	}

	profile, err := s.Load(ctx, route.Address)
	if err != nil {
		s.logger.Error("failed to load profile", zap.String("address", route.Address), zap.Error(err))
		return Page{Route: route}, err
	}

	opts := s.opts
	opts.ShowFullBio = showFullBio

	return Page{
		Route:   route,
		Profile: profile,
		Header:  BuildHeader(profile, s.viewer.Viewer(), s.state.Snapshot().Streaks, opts),
		Tabs:    Tabs(route.Address),
	}, nil
}

// Update sends a profile update on behalf of the viewer.
func (s *Service) Update(ctx context.Context, address string, update clients.ProfileUpdate) error {
	if s.relay == nil {
		return errors.New("relay is not configured")
	}
	viewer := s.viewer.Viewer()
	if !viewer.Owns(address) {
		return errors.Wrapf(ErrNotViewerProfile, "%q", address)
	}

	msg, err := clients.UpdateProfileMessage(address, update)
	if err != nil {
		return err
	}
	if _, err := s.relay.Send(ctx, msg); err != nil {
		return errors.Wrap(err, "update profile")
	}

	s.logger.Info("profile update sent", zap.String("profile", address))
	return nil
}
