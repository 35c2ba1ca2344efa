package clients

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bazar/internal/domain"
)

// RegistryClient resolves identity profiles through the profile registry process.
type RegistryClient struct {
	gateway   Gateway
	processID string
}

// NewRegistryClient creates a new registry client.
func NewRegistryClient(gateway Gateway, registryProcessID string) *RegistryClient {
	return &RegistryClient{gateway: gateway, processID: registryProcessID}
}

// GetProfiles bulk-fetches profiles for the given ids.
// Ids without a profile are absent from the result.
func (c *RegistryClient) GetProfiles(ctx context.Context, ids []string) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	raw, err := c.gateway.Read(ctx, ReadRequest{
		ProcessID: c.processID,
		Action:    "Read-Profiles",
		Data:      map[string][]string{"ProfileIds": ids},
	})
	if err != nil {
		if errors.Is(err, ErrEmptyPayload) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read profiles")
	}

	return DecodeProfiles(raw)
}

// GetProfileByID reads a single profile process.
func (c *RegistryClient) GetProfileByID(ctx context.Context, profileID string) (domain.Profile, error) {
	raw, err := c.gateway.Read(ctx, ReadRequest{
		ProcessID: profileID,
		Action:    "Info",
	})
	if err != nil {
		if errors.Is(err, ErrEmptyPayload) {
			return domain.Profile{}, errors.Wrapf(ErrNotFound, "profile %s", profileID)
		}
		return domain.Profile{}, errors.Wrapf(err, "read profile %s", profileID)
	}

	return DecodeProfile(profileID, raw)
}
