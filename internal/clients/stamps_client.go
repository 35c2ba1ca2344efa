package clients

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/bazar/internal/domain"
)

// StampsClient reads endorsement counts from the stamps process.
type StampsClient struct {
	gateway   Gateway
	processID string
}

// NewStampsClient creates a new stamps client.
func NewStampsClient(gateway Gateway, stampsProcessID string) *StampsClient {
	return &StampsClient{gateway: gateway, processID: stampsProcessID}
}

// GetStamps returns stamp counts keyed by asset id.
func (c *StampsClient) GetStamps(ctx context.Context, ids []string) (map[string]domain.StampCount, error) {
	if len(ids) == 0 {
		return map[string]domain.StampCount{}, nil
	}

	raw, err := c.gateway.Read(ctx, ReadRequest{
		ProcessID: c.processID,
		Action:    "Read-Stamp-Counts",
		Data:      map[string][]string{"Ids": ids},
	})
	if err != nil {
		return nil, errors.Wrap(err, "read stamp counts")
	}

	return DecodeStampCounts(raw)
}

// HasStamped reports per asset id whether the viewer address has stamped it.
func (c *StampsClient) HasStamped(ctx context.Context, viewer string, ids []string) (map[string]bool, error) {
	if viewer == "" {
		return nil, errors.New("viewer address is empty")
	}
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}

	raw, err := c.gateway.Read(ctx, ReadRequest{
		ProcessID: c.processID,
		Action:    "Read-Has-Stamped",
		Data: struct {
			Ids     []string `json:"Ids"`
			Address string   `json:"Address"`
		}{Ids: ids, Address: viewer},
	})
	if err != nil {
		return nil, errors.Wrap(err, "read has-stamped")
	}

	return DecodeStampChecks(raw)
}
