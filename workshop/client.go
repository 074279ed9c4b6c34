// Package workshop fetches published file details from the Steam Web API.
package workshop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"baro-mod-manager/config"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxErrorBody = 512

// Client handles communication with the Steam Web API.
type Client struct {
	Endpoint   string
	UserAgent  string
	HTTPClient *http.Client
	Log        *zap.SugaredLogger

	apiLog *LoggingTransport
}

// NewClient creates a Steam client using the provided configuration.
// Requests are retried according to cfg.MaxRetries and, with
// cfg.LogAPIRequests, dumped to cfg.APILogFile.
func NewClient(cfg config.Config, log *zap.SugaredLogger) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user_agent is not configured")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	var transport http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()
	var apiLog *LoggingTransport
	if cfg.LogAPIRequests {
		lt, err := NewLoggingTransport(transport, cfg.APILogFile, log)
		if err != nil {
			return nil, err
		}
		apiLog = lt
		transport = lt
	}
	transport = &RetryTransport{
		Base:       transport,
		MaxRetries: cfg.MaxRetries,
		Backoff:    time.Second,
		Log:        log,
	}

	return &Client{
		Endpoint:  cfg.SteamAPIEndpoint,
		UserAgent: cfg.UserAgent,
		HTTPClient: &http.Client{
			Timeout:   cfg.HTTPTimeout(),
			Transport: transport,
		},
		Log:    log,
		apiLog: apiLog,
	}, nil
}

// Close releases the API request log, if one is open.
func (c *Client) Close() error {
	if c.apiLog == nil {
		return nil
	}
	return c.apiLog.Close()
}

func (c *Client) logger() *zap.SugaredLogger {
	if c.Log == nil {
		return zap.NewNop().Sugar()
	}
	return c.Log
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

// GetItems fetches ids in a single request.
//
// The call fails unless Steam reports success and returns exactly one
// entry per requested id. Entries whose own result code is not OK are
// dropped from the returned slice.
func (c *Client) GetItems(ctx context.Context, ids []uint64) ([]Item, error) {
	if len(ids) == 0 {
		return []Item{}, nil
	}

	form := url.Values{}
	form.Set("itemcount", strconv.Itoa(len(ids)))
	for i, id := range ids {
		form.Set(fmt.Sprintf("publishedfileids[%d]", i), strconv.FormatUint(id, 10))
	}

	var body detailsResponse
	if err := c.postForm(ctx, form, &body); err != nil {
		return nil, err
	}

	resp := body.Response
	if resp.Result != ResultOK {
		return nil, &APIError{Kind: ErrResultCode, Result: uint64(resp.Result)}
	}
	if int(resp.ResultCount) != len(ids) {
		return nil, &APIError{Kind: ErrResultCountMismatch, Requested: len(ids), Returned: uint64(resp.ResultCount)}
	}

	items := make([]Item, 0, len(resp.PublishedFileDetails))
	for _, it := range resp.PublishedFileDetails {
		if !it.OK() {
			c.logger().Debugw("Skipping unresolved workshop item",
				zap.Uint64("id", it.ID()),
				zap.Uint64("result", uint64(it.Result)))
			continue
		}
		if it.IsBanned() {
			c.logger().Warnw("Workshop item is banned",
				zap.Uint64("id", it.ID()),
				zap.String("title", it.Title))
		}
		items = append(items, it)
	}
	return items, nil
}

// GetItem fetches a single item. It returns ErrItemNotFound when Steam
// answers but cannot resolve the id.
func (c *Client) GetItem(ctx context.Context, id uint64) (*Item, error) {
	items, err := c.GetItems(ctx, []uint64{id})
	if err != nil {
		return nil, fmt.Errorf("failed to get workshop item %d: %w", id, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	return &items[0], nil
}

// GetItemsBatched splits ids into chunks of batchSize and fetches all
// chunks concurrently. A batchSize of zero or less sends one request.
//
// The first failing chunk cancels the others and the whole call fails;
// no items from successful chunks are returned in that case.
func (c *Client) GetItemsBatched(ctx context.Context, ids []uint64, batchSize int) ([]Item, error) {
	if len(ids) == 0 {
		return []Item{}, nil
	}
	if batchSize <= 0 || batchSize >= len(ids) {
		return c.GetItems(ctx, ids)
	}

	chunks := chunkIDs(ids, batchSize)
	results := make([][]Item, len(chunks))
	c.logger().Debugw("Fetching workshop items in batches",
		zap.Int("ids", len(ids)),
		zap.Int("batches", len(chunks)),
		zap.Int("batch_size", batchSize))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			items, err := c.GetItems(gctx, chunk)
			if err != nil {
				return fmt.Errorf("batch %d/%d: %w", i+1, len(chunks), err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	items := make([]Item, 0, total)
	for _, r := range results {
		items = append(items, r...)
	}
	return items, nil
}

func chunkIDs(ids []uint64, size int) [][]uint64 {
	chunks := make([][]uint64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func (c *Client) postForm(ctx context.Context, form url.Values, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &NetworkError{Endpoint: c.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Kind: ErrBadStatus, StatusCode: resp.StatusCode, Detail: string(bodyBytes)}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &APIError{Kind: ErrDecode, StatusCode: resp.StatusCode, Detail: err.Error()}
	}
	return nil
}
