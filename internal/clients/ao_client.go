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

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/vadiminshakov/bazar/pkg/retrier"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultReadsPerSecond = 10
	defaultRetries        = 2
	dryRunPath            = "/dry-run"
	anonymousOwner        = "1234"
)

var (
	// ErrEmptyPayload is returned when a read produced no message data.
	ErrEmptyPayload = errors.New("empty read payload")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	errRetryable = errors.New("retryable gateway error")
)

// Tag is a name/value pair attached to a process message.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ReadRequest describes a read-only call to a remote process.
type ReadRequest struct {
	ProcessID string
	Action    string
	Tags      []Tag
	// Data is sent as-is when it is a string, otherwise JSON encoded.
	Data any
}

// Gateway is the remote read gateway used by every aggregation and view component.
type Gateway interface {
	Read(ctx context.Context, req ReadRequest) (json.RawMessage, error)
}

// AOConfig configures the compute-unit client.
type AOConfig struct {
	ComputeUnitURL string
	Timeout        time.Duration
	ReadsPerSecond float64
	Retries        int
}

// AOClient reads process state through compute-unit dry runs.
type AOClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retrier    *retrier.Retrier
	logger     *zap.Logger
}

// NewAOClient creates a new compute-unit client.
func NewAOClient(cfg AOConfig, logger *zap.Logger) (*AOClient, error) {
	if strings.TrimSpace(cfg.ComputeUnitURL) == "" {
		return nil, errors.New("compute unit url is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ReadsPerSecond <= 0 {
		cfg.ReadsPerSecond = defaultReadsPerSecond
	}
	if cfg.Retries < 0 {
		cfg.Retries = defaultRetries
	}

	logger = logger.With(zap.String("component", "ao_client"))
	burst := int(cfg.ReadsPerSecond)
	if burst < 1 {
		burst = 1
	}

	return &AOClient{
		baseURL:    strings.TrimRight(cfg.ComputeUnitURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.ReadsPerSecond), burst),
		retrier: retrier.New(
			retrier.WithMaxRetries(cfg.Retries),
			retrier.WithRetryIf(func(err error) bool { return errors.Is(err, errRetryable) }),
			retrier.WithOnRetry(func(attempt int, err error) {
				logger.Warn("retrying read", zap.Int("attempt", attempt), zap.Error(err))
			}),
		),
		logger: logger,
	}, nil
}

type dryRunMessage struct {
	ID     string `json:"Id"`
	Target string `json:"Target"`
	Owner  string `json:"Owner"`
	Anchor string `json:"Anchor"`
	Data   string `json:"Data"`
	Tags   []Tag  `json:"Tags"`
}

// Read performs a dry run against the process and returns the data of its first reply message.
func (c *AOClient) Read(ctx context.Context, req ReadRequest) (json.RawMessage, error) {
	if req.ProcessID == "" {
		return nil, errors.New("process id is empty")
	}

	msg, err := buildDryRun(req)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(err, "marshal dry run message")
	}

	payload, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "wait for read slot")
		}
		return c.post(ctx, req.ProcessID, body)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "read %s from %s", req.Action, req.ProcessID)
	}

	data, err := extractData(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s from %s", req.Action, req.ProcessID)
	}

	return data, nil
}

func (c *AOClient) post(ctx context.Context, processID string, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s%s?process-id=%s", c.baseURL, dryRunPath, processID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(errRetryable, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errRetryable, err.Error())
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, errors.Wrapf(errRetryable, "compute unit returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("compute unit returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func buildDryRun(req ReadRequest) (dryRunMessage, error) {
	var data string
	switch v := req.Data.(type) {
	case nil:
	case string:
		data = v
	case []byte:
		data = string(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return dryRunMessage{}, errors.Wrap(err, "marshal read data")
		}
		data = string(raw)
	}

	tags := []Tag{
		{Name: "Data-Protocol", Value: "ao"},
		{Name: "Type", Value: "Message"},
		{Name: "Variant", Value: "ao.TN.1"},
	}
	if req.Action != "" {
		tags = append(tags, Tag{Name: "Action", Value: req.Action})
	}
	tags = append(tags, req.Tags...)

	return dryRunMessage{
		ID:     anonymousOwner,
		Target: req.ProcessID,
		Owner:  anonymousOwner,
		Anchor: "0",
		Data:   data,
		Tags:   tags,
	}, nil
}

// extractData returns the data of the first reply message.
// Non-JSON data is returned as a JSON string.
func extractData(body []byte) (json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("compute unit returned invalid json")
	}

	if e := gjson.GetBytes(body, "Error"); e.Exists() && e.String() != "" {
		return nil, fmt.Errorf("process error: %s", e.String())
	}

	data := gjson.GetBytes(body, "Messages.0.Data")
	if !data.Exists() || data.String() == "" {
		return nil, ErrEmptyPayload
	}

	if data.Type == gjson.JSON {
		return json.RawMessage(data.Raw), nil
	}

	text := data.String()
	if gjson.Valid(text) {
		return json.RawMessage(text), nil
	}

	quoted, err := json.Marshal(text)
	if err != nil {
		return nil, errors.Wrap(err, "encode message data")
	}

	return quoted, nil
}
