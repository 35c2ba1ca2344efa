package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/bazar/pkg/retrier"
	"go.uber.org/zap"
)

// Message is a signed-by-relay message sent to a process.
type Message struct {
	ID        string `json:"id"`
	ProcessID string `json:"target"`
	Action    string `json:"action"`
	Tags      []Tag  `json:"tags,omitempty"`
	Data      string `json:"data,omitempty"`
}

// Relay submits user actions to processes.
type Relay interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// RelayClient posts messages to a signing relay that holds the viewer wallet.
type RelayClient struct {
	url        string
	token      string
	httpClient *http.Client
	retrier    *retrier.Retrier
	logger     *zap.Logger
}

// NewRelayClient creates a new relay client.
func NewRelayClient(url, token string, timeout time.Duration, logger *zap.Logger) *RelayClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RelayClient{
		url:        strings.TrimRight(url, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		retrier: retrier.New(
			retrier.WithMaxRetries(1),
			retrier.WithRetryIf(func(err error) bool { return errors.Is(err, errRetryable) }),
		),
		logger: logger.With(zap.String("component", "relay_client")),
	}
}

// Send posts the message and returns its id.
// A message id is generated when the caller left it empty so that retries stay idempotent.
func (c *RelayClient) Send(ctx context.Context, msg Message) (string, error) {
	if c.url == "" {
		return "", errors.New("relay url is not configured")
	}
	if msg.ProcessID == "" {
		return "", errors.New("message target is empty")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", errors.Wrap(err, "marshal relay message")
	}

	err = c.retrier.Do(ctx, func(ctx context.Context) error {
		return c.post(ctx, body)
	})
	if err != nil {
		return "", errors.Wrapf(err, "send %s to %s", msg.Action, msg.ProcessID)
	}

	c.logger.Info("message sent",
		zap.String("id", msg.ID),
		zap.String("action", msg.Action),
		zap.String("target", msg.ProcessID))

	return msg.ID, nil
}

func (c *RelayClient) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/messages", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errRetryable, err.Error())
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return errors.Wrapf(errRetryable, "relay returned status %d", resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("relay returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// CancelOrderMessage builds the market message cancelling an open order.
func CancelOrderMessage(marketProcessID, orderID string) Message {
	return Message{
		ProcessID: marketProcessID,
		Action:    "Cancel-Order",
		Tags:      []Tag{{Name: "Order-Id", Value: orderID}},
	}
}

// CreateListingMessage builds the transfer that places a sell order on the market.
// Quantity and price are raw integer amounts.
func CreateListingMessage(assetID, marketProcessID, currency string, quantity, price decimal.Decimal) Message {
	return Message{
		ProcessID: assetID,
		Action:    "Transfer",
		Tags: []Tag{
			{Name: "Recipient", Value: marketProcessID},
			{Name: "Quantity", Value: quantity.String()},
			{Name: "X-Order-Action", Value: "Create-Order"},
			{Name: "X-Swap-Token", Value: currency},
			{Name: "X-Price", Value: price.String()},
		},
	}
}

// ProfileUpdate holds the editable fields of a profile.
type ProfileUpdate struct {
	Username     string `json:"UserName,omitempty"`
	DisplayName  string `json:"DisplayName,omitempty"`
	Description  string `json:"Description,omitempty"`
	ProfileImage string `json:"ProfileImage,omitempty"`
	CoverImage   string `json:"CoverImage,omitempty"`
}

// UpdateProfileMessage builds the profile process update message.
func UpdateProfileMessage(profileID string, update ProfileUpdate) (Message, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return Message{}, errors.Wrap(err, "marshal profile update")
	}
	return Message{
		ProcessID: profileID,
		Action:    "Update-Profile",
		Data:      string(data),
	}, nil
}
