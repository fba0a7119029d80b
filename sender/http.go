package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"readfile/types"
)

// HTTPSender posts each chunk as one JSON array of envelopes.
type HTTPSender struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPSender(endpoint string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		Endpoint: endpoint,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPSender) Send(ctx context.Context, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	body, err := json.Marshal(ToEnvelopes(records))
	if err != nil {
		return c.fail(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return c.fail(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return c.fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return c.fail(fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *HTTPSender) Close() error {
	c.Client.CloseIdleConnections()
	return nil
}

func (c *HTTPSender) fail(err error) error {
	return &types.OpError{Op: "sender.http", Kind: types.KindPublish, Path: c.Endpoint, Err: err}
}
