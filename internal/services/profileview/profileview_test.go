package profileview

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/bazar/internal/clients"
	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/internal/store"
	"go.uber.org/zap"
)

const (
	profileID = "SNy4m-DrqxWl01YqGM4sxI8qCni-58re8uuJLvZPypY"
	walletID  = "LaC2VtxqGekpRPuJh-TkI_ByAqCS2_KB3YuhMJ5yBtc"
	avatarTx  = "xU9zFkq3X2ZQ6olwNVvr1vUWIjc3kXTWr7xKQD6dh10"
)

type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) GetProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(domain.Profile)
	return p, args.Error(1)
}

type mockRelay struct {
	mock.Mock
}

func (m *mockRelay) Send(ctx context.Context, msg clients.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type staticViewer domain.Viewer

func (v staticViewer) Viewer() domain.Viewer { return domain.Viewer(v) }

type staticState store.State

func (s staticState) Snapshot() store.State { return store.State(s) }

func TestResolveRoute(t *testing.T) {
	tests := []struct {
		name    string
		address string
		tab     string
		want    Route
	}{
		{"empty address", "", "", Route{Redirect: NotFoundPath}},
		{"invalid address", "not-an-address", "assets", Route{Redirect: NotFoundPath}},
		{"missing tab", profileID, "", Route{Address: profileID, Redirect: "/profile/" + profileID + "/assets"}},
		{"assets", profileID, "assets", Route{Address: profileID, Tab: TabAssets}},
		{"collections", profileID, "Collections", Route{Address: profileID, Tab: TabCollections}},
		{"disabled tab", profileID, "activity", Route{Address: profileID, Tab: TabAssets}},
		{"unknown tab", profileID, "whatever", Route{Address: profileID, Tab: TabAssets}},
		{"evm address", "0x52908400098527886E0F7030069857D2E4169EE7", "assets", Route{Address: "0x52908400098527886E0F7030069857D2E4169EE7", Tab: TabAssets}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRoute(tt.address, tt.tab))
		})
	}
}

func TestBuildHeader(t *testing.T) {
	t.Run("fallbacks to formatted address", func(t *testing.T) {
		h := BuildHeader(domain.Profile{ID: profileID, WalletAddress: walletID}, domain.Viewer{}, nil, HeaderOptions{})
		assert.Equal(t, "LaC2V...5yBtc", h.Name)
		assert.Equal(t, "LaC2V...5yBtc", h.Handle)
		assert.Empty(t, h.AvatarURL)
		assert.Empty(t, h.BannerURL)
		assert.False(t, h.CanEdit)
		assert.False(t, h.CreateProfilePrompt)
	})

	t.Run("names and media", func(t *testing.T) {
		p := domain.Profile{
			ID: profileID, WalletAddress: walletID,
			Username: "alice", DisplayName: "Alice",
			Avatar: avatarTx, Banner: "not-a-tx",
		}
		h := BuildHeader(p, domain.Viewer{}, nil, HeaderOptions{GatewayURL: "https://gw.example/", DefaultBanner: avatarTx})
		assert.Equal(t, "Alice", h.Name)
		assert.Equal(t, "@alice", h.Handle)
		assert.Equal(t, "https://gw.example/"+avatarTx, h.AvatarURL)
		assert.Equal(t, "https://gw.example/"+avatarTx, h.BannerURL)
	})

	t.Run("bio truncation", func(t *testing.T) {
		long := strings.Repeat("b", MaxBioLength+5)
		h := BuildHeader(domain.Profile{ID: profileID, Bio: long}, domain.Viewer{}, nil, HeaderOptions{})
		assert.True(t, h.BioTruncated)
		assert.Equal(t, strings.Repeat("b", MaxBioLength)+"...", h.Bio)

		h = BuildHeader(domain.Profile{ID: profileID, Bio: long}, domain.Viewer{}, nil, HeaderOptions{ShowFullBio: true})
		assert.False(t, h.BioTruncated)
		assert.Equal(t, long, h.Bio)

		short := strings.Repeat("b", MaxBioLength)
		h = BuildHeader(domain.Profile{ID: profileID, Bio: short}, domain.Viewer{}, nil, HeaderOptions{})
		assert.False(t, h.BioTruncated)
		assert.Equal(t, short, h.Bio)
	})

	t.Run("edit only for the viewer", func(t *testing.T) {
		viewer := domain.Viewer{WalletAddress: walletID, ProfileID: profileID}
		assert.True(t, BuildHeader(domain.Profile{ID: profileID}, viewer, nil, HeaderOptions{}).CanEdit)
		assert.False(t, BuildHeader(domain.Profile{ID: avatarTx}, viewer, nil, HeaderOptions{}).CanEdit)
	})

	t.Run("create profile prompt", func(t *testing.T) {
		h := BuildHeader(domain.Profile{WalletAddress: walletID}, domain.Viewer{WalletAddress: walletID}, nil, HeaderOptions{})
		assert.True(t, h.CreateProfilePrompt)
	})

	t.Run("streak days", func(t *testing.T) {
		streaks := map[string]domain.Streak{walletID: {Days: 7}}
		h := BuildHeader(domain.Profile{ID: profileID, WalletAddress: walletID}, domain.Viewer{}, streaks, HeaderOptions{})
		assert.Equal(t, int64(7), h.StreakDays)
	})
}

func TestServiceLoad(t *testing.T) {
	t.Run("reuses viewer profile", func(t *testing.T) {
		profiles := new(mockProfiles)
		own := domain.Profile{ID: profileID, Username: "me"}
		viewer := staticViewer{WalletAddress: walletID, ProfileID: profileID, Profile: &own}
		svc := NewService(profiles, viewer, staticState{}, nil, HeaderOptions{}, zap.NewNop())

		got, err := svc.Load(context.Background(), profileID)
		require.NoError(t, err)
		assert.Equal(t, own, got)
		profiles.AssertNotCalled(t, "GetProfileByID", mock.Anything, mock.Anything)
	})

	t.Run("fetches other profiles", func(t *testing.T) {
		profiles := new(mockProfiles)
		profiles.On("GetProfileByID", mock.Anything, profileID).Return(domain.Profile{ID: profileID, Username: "bob"}, nil).Once()
		svc := NewService(profiles, staticViewer{}, staticState{}, nil, HeaderOptions{}, zap.NewNop())

		got, err := svc.Load(context.Background(), profileID)
		require.NoError(t, err)
		assert.Equal(t, "bob", got.Username)
		profiles.AssertExpectations(t)
	})

	t.Run("invalid address", func(t *testing.T) {
		svc := NewService(new(mockProfiles), staticViewer{}, staticState{}, nil, HeaderOptions{}, zap.NewNop())
		_, err := svc.Load(context.Background(), "bad")
		assert.ErrorIs(t, err, ErrInvalidAddress)
	})

	t.Run("not found", func(t *testing.T) {
		profiles := new(mockProfiles)
		profiles.On("GetProfileByID", mock.Anything, profileID).Return(nil, errors.Wrap(clients.ErrNotFound, "profile")).Once()
		svc := NewService(profiles, staticViewer{}, staticState{}, nil, HeaderOptions{}, zap.NewNop())

		_, err := svc.Load(context.Background(), profileID)
		assert.ErrorIs(t, err, clients.ErrNotFound)
	})
}

func TestServicePage(t *testing.T) {
	profiles := new(mockProfiles)
	profiles.On("GetProfileByID", mock.Anything, profileID).
		Return(domain.Profile{ID: profileID, WalletAddress: walletID}, nil).Once()
	state := staticState{Streaks: map[string]domain.Streak{walletID: {Days: 3}}}
	svc := NewService(profiles, staticViewer{}, state, nil, HeaderOptions{}, zap.NewNop())

	page, err := svc.Page(context.Background(), profileID, "", false)
	require.NoError(t, err)
	assert.Equal(t, "/profile/"+profileID+"/assets", page.Route.Redirect)

	page, err = svc.Page(context.Background(), profileID, "collections", false)
	require.NoError(t, err)
	assert.Equal(t, TabCollections, page.Route.Tab)
	assert.Equal(t, int64(3), page.Header.StreakDays)
	require.Len(t, page.Tabs, 4)
	assert.True(t, page.Tabs[2].Disabled)
	profiles.AssertExpectations(t)
}

func TestServiceUpdate(t *testing.T) {
	viewer := staticViewer{WalletAddress: walletID, ProfileID: profileID}
	r := new(mockRelay)
	r.On("Send", mock.Anything, mock.MatchedBy(func(msg clients.Message) bool {
		return msg.ProcessID == profileID && msg.Action == "Update-Profile"
	})).Return("msg", nil).Once()
	svc := NewService(new(mockProfiles), viewer, staticState{}, r, HeaderOptions{}, zap.NewNop())

	err := svc.Update(context.Background(), avatarTx, clients.ProfileUpdate{Username: "x"})
	assert.ErrorIs(t, err, ErrNotViewerProfile)

	require.NoError(t, svc.Update(context.Background(), profileID, clients.ProfileUpdate{Username: "x"}))
	r.AssertExpectations(t)
}
