package domain

// Profile identity record resolved from the profile registry.
type Profile struct {
	ID            string   `json:"id"`
	WalletAddress string   `json:"walletAddress,omitempty"`
	Username      string   `json:"username,omitempty"`
	DisplayName   string   `json:"displayName,omitempty"`
	Bio           string   `json:"bio,omitempty"`
	Avatar        string   `json:"avatar,omitempty"`
	Banner        string   `json:"banner,omitempty"`
	Assets        []string `json:"assets,omitempty"`
	Collections   []string `json:"collections,omitempty"`
}

// Viewer is the authenticated identity of the current application session.
type Viewer struct {
	WalletAddress string   `json:"walletAddress"`
	ProfileID     string   `json:"profileId,omitempty"`
	Profile       *Profile `json:"profile,omitempty"`
}

// Authenticated reports whether the viewer has both a wallet and a profile.
func (v *Viewer) Authenticated() bool {
	return v != nil && v.WalletAddress != "" && v.ProfileID != ""
}

// Owns reports whether the given profile id belongs to the viewer.
func (v *Viewer) Owns(profileID string) bool {
	return v.Authenticated() && profileID != "" && v.ProfileID == profileID
}
