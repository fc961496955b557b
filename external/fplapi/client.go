package fplapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fpl-pulse/internal/domain/fpl"
	"github.com/riskibarqy/fpl-pulse/internal/platform/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://fantasy.premierleague.com/api"

	// Per-endpoint deadlines. The bootstrap payload is large; everything
	// else is small and should fail fast so stale-cache fallback can kick
	// in quickly.
	bootstrapTimeout = 30 * time.Second
	defaultTimeout   = 15 * time.Second

	maxResponseBytes = 32 << 20
)

// ErrTransport marks network-level failures (timeout, connection refused).
// Non-2xx responses are reported as *HTTPError instead.
var ErrTransport = crerr.New("fpl transport failure")

// HTTPError is a non-2xx provider response.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fpl provider status=%d url=%s", e.Status, e.URL)
}

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Logger     *logging.Logger
}

// Client is a read-only consumer of the public FPL API. One GET per call, no
// retries: a failed attempt is reported immediately and the caller decides on
// stale-cache fallback.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// FetchBootstrap pulls the whole-league snapshot in one call.
func (c *Client) FetchBootstrap(ctx context.Context) (fpl.Bootstrap, error) {
	var envelope bootstrapEnvelope
	if err := c.doJSON(ctx, "/bootstrap-static/", bootstrapTimeout, &envelope); err != nil {
		return fpl.Bootstrap{}, fmt.Errorf("fetch bootstrap: %w", err)
	}
	return mapBootstrap(envelope), nil
}

// FetchPlayerHistory pulls one player's per-gameweek season history.
func (c *Client) FetchPlayerHistory(ctx context.Context, playerID int64) (fpl.PlayerHistory, error) {
	if playerID <= 0 {
		return fpl.PlayerHistory{}, fmt.Errorf("player id must be greater than zero")
	}

	var envelope elementSummaryEnvelope
	path := fmt.Sprintf("/element-summary/%d/", playerID)
	if err := c.doJSON(ctx, path, defaultTimeout, &envelope); err != nil {
		return fpl.PlayerHistory{}, fmt.Errorf("fetch player history player_id=%d: %w", playerID, err)
	}
	return mapPlayerHistory(playerID, envelope), nil
}

// FetchTeamPicks pulls a manager's squad for an explicit gameweek. Current
// gameweek resolution happens above this layer, against the cached bootstrap.
func (c *Client) FetchTeamPicks(ctx context.Context, teamID int64, gameweek int) (fpl.TeamPicks, error) {
	if teamID <= 0 {
		return fpl.TeamPicks{}, fmt.Errorf("team id must be greater than zero")
	}
	if gameweek <= 0 {
		return fpl.TeamPicks{}, fmt.Errorf("gameweek must be greater than zero")
	}

	var envelope picksEnvelope
	path := fmt.Sprintf("/entry/%d/event/%d/picks/", teamID, gameweek)
	if err := c.doJSON(ctx, path, defaultTimeout, &envelope); err != nil {
		return fpl.TeamPicks{}, fmt.Errorf("fetch team picks team_id=%d gameweek=%d: %w", teamID, gameweek, err)
	}
	return mapTeamPicks(teamID, gameweek, envelope), nil
}

// FetchFixtures pulls the full season fixture list.
func (c *Client) FetchFixtures(ctx context.Context) ([]fpl.Fixture, error) {
	var items []fixtureItem
	if err := c.doJSON(ctx, "/fixtures/", defaultTimeout, &items); err != nil {
		return nil, fmt.Errorf("fetch fixtures: %w", err)
	}
	return mapFixtures(items), nil
}

func (c *Client) doJSON(ctx context.Context, path string, timeout time.Duration, target any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "error", err)
		return fmt.Errorf("%w: send request: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response body: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WarnContext(ctx, "fpl request rejected", "url", fullURL, "status", resp.StatusCode)
		return &HTTPError{Status: resp.StatusCode, URL: fullURL}
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}
