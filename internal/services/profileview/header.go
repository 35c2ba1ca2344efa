package profileview

import (
	"strings"

	"github.com/vadiminshakov/bazar/internal/domain"
	"github.com/vadiminshakov/bazar/pkg/format"
)

// MaxBioLength is the number of bio characters shown before truncation.
const MaxBioLength = 80

// Header is the derived profile header.
type Header struct {
	ProfileID     string `json:"profileId,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
	Name          string `json:"name"`
	Handle        string `json:"handle"`
	Bio           string `json:"bio,omitempty"`
	BioTruncated  bool   `json:"bioTruncated"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	BannerURL     string `json:"bannerUrl,omitempty"`
	CanEdit       bool   `json:"canEdit"`
	// CreateProfilePrompt asks the viewer to create a profile before anything else.
	CreateProfilePrompt bool  `json:"createProfilePrompt"`
	StreakDays          int64 `json:"streakDays"`
}

// HeaderOptions controls header derivation.
type HeaderOptions struct {
	GatewayURL    string
	DefaultBanner string
	ShowFullBio   bool
}

// BuildHeader derives the header for a profile as seen by the viewer.
func BuildHeader(profile domain.Profile, viewer domain.Viewer, streaks map[string]domain.Streak, opts HeaderOptions) Header {
	short := format.Address(profile.WalletAddress, false)

	h := Header{
		ProfileID:     profile.ID,
		WalletAddress: profile.WalletAddress,
		Name:          profile.DisplayName,
		Handle:        short,
		Bio:           profile.Bio,
	}
	if h.Name == "" {
		h.Name = short
	}
	if profile.Username != "" {
		h.Handle = "@" + profile.Username
	}

	if runes := []rune(profile.Bio); len(runes) > MaxBioLength && !opts.ShowFullBio {
		h.Bio = string(runes[:MaxBioLength]) + "..."
		h.BioTruncated = true
	}

	if format.ValidTxID(profile.Avatar) {
		h.AvatarURL = txEndpoint(opts.GatewayURL, profile.Avatar)
	}
	switch {
	case format.ValidTxID(profile.Banner):
		h.BannerURL = txEndpoint(opts.GatewayURL, profile.Banner)
	case opts.DefaultBanner != "":
		h.BannerURL = txEndpoint(opts.GatewayURL, opts.DefaultBanner)
	}

	ownProfile := viewer.Profile != nil && profile.ID != "" && viewer.Profile.ID == profile.ID
	h.CanEdit = ownProfile || viewer.Owns(profile.ID)
	h.CreateProfilePrompt = profile.ID == ""

	if s, ok := streaks[profile.WalletAddress]; ok {
		h.StreakDays = s.Days
	}

	return h
}

func txEndpoint(gateway, txID string) string {
	if gateway == "" {
		gateway = DefaultGatewayURL
	}
	return strings.TrimRight(gateway, "/") + "/" + txID
}
