// Package solis writes charge schedules through the SolisCloud control API.
package solis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/kilianp07/solischarge/core/window"
	"github.com/kilianp07/solischarge/infra/logger"
)

var (
	// ErrAuth is returned when SolisCloud refuses the credentials or token.
	ErrAuth = errors.New("solis: authentication failed")
	// ErrNoInverter is returned when no inverter id can be resolved.
	ErrNoInverter = errors.New("solis: no inverter found")
	// ErrAPI is returned when the API answers with a failure code.
	ErrAPI = errors.New("solis: api error")
)

// envelope is the common response wrapper.
type envelope struct {
	Success   *bool           `json:"success"`
	Code      any             `json:"code"`
	Msg       string          `json:"msg"`
	CSRFToken string          `json:"csrfToken"`
	Data      json.RawMessage `json:"data"`
}

func (e envelope) failed() bool {
	if e.Success != nil && !*e.Success {
		return true
	}
	if e.Code == nil {
		return false
	}
	code := fmt.Sprint(e.Code)
	return code != "0" && code != ""
}

type inverterList struct {
	Page struct {
		Records []struct {
			ID any    `json:"id"`
			SN string `json:"sn"`
		} `json:"records"`
	} `json:"page"`
}

type controlRequest struct {
	InverterID string `json:"inverterId"`
	CID        string `json:"cid"`
	Value      string `json:"value"`
}

// Client is a SolisCloud API client. It logs in lazily and caches the token
// and the resolved inverter id.
type Client struct {
	cfg     Config
	http    *http.Client
	log     logger.Logger
	now     func() time.Time
	limiter *rate.Limiter

	mu       sync.Mutex
	token    string
	inverter string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(c *Client) { c.log = l } }

// WithClock sets the time source used for the Date header.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// New validates cfg and returns a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	limit := rate.Inf
	if d := cfg.writeInterval(); d > 0 {
		limit = rate.Every(d)
	}
	c := &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.timeout()},
		log:      logger.New("solis"),
		now:      time.Now,
		limiter:  rate.NewLimiter(limit, 1),
		inverter: cfg.InverterID,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Login exchanges the credentials for a session token.
func (c *Client) Login(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"userInfo": c.cfg.Username,
		"password": passwordHash(c.cfg.Password),
	})
	if err != nil {
		return err
	}
	env, err := c.post(ctx, loginPath, body, "")
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if env.CSRFToken == "" {
		return fmt.Errorf("login: %w: no token in response", ErrAuth)
	}
	c.mu.Lock()
	c.token = env.CSRFToken
	c.mu.Unlock()
	c.log.Infof("logged in to SolisCloud as %s", c.cfg.Username)
	return nil
}

// ResolveInverter returns the inverter id to program. An explicit device
// wins over the configured id, which wins over a station lookup.
func (c *Client) ResolveInverter(ctx context.Context, device string) (string, error) {
	if device != "" {
		return device, nil
	}
	c.mu.Lock()
	id := c.inverter
	c.mu.Unlock()
	if id != "" {
		return id, nil
	}
	if c.cfg.StationID == "" {
		return "", ErrNoInverter
	}
	body, err := json.Marshal(map[string]string{"stationId": c.cfg.StationID})
	if err != nil {
		return "", err
	}
	env, err := c.post(ctx, inverterPath, body, c.currentToken())
	if err != nil {
		return "", fmt.Errorf("inverter list: %w", err)
	}
	var list inverterList
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &list); err != nil {
			return "", fmt.Errorf("inverter list: %w", err)
		}
	}
	records := list.Page.Records
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].ID == nil {
			continue
		}
		if id = fmt.Sprint(records[i].ID); id != "" {
			break
		}
	}
	if id == "" {
		return "", fmt.Errorf("%w for station %s", ErrNoInverter, c.cfg.StationID)
	}
	if len(records) > 1 {
		c.log.Warnf("station %s has %d inverters, using %s; set inverter_id to choose", c.cfg.StationID, len(records), id)
	}
	c.mu.Lock()
	c.inverter = id
	c.mu.Unlock()
	c.log.Infof("resolved inverter %s", id)
	return id, nil
}

// WriteSchedule programs slots on the inverter. The three-slot layout is a
// single combined write. The six-slot layout writes one setting per slot.
func (c *Client) WriteSchedule(ctx context.Context, device string, layout window.Layout, slots []window.Slot) error {
	if len(slots) != layout.Slots() {
		return fmt.Errorf("%w: expected %d slots, got %d", window.ErrSlotCount, layout.Slots(), len(slots))
	}
	err := c.write(ctx, device, layout, slots)
	if errors.Is(err, ErrAuth) {
		c.log.Warnf("token rejected, logging in again")
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		err = c.write(ctx, device, layout, slots)
	}
	return err
}

func (c *Client) write(ctx context.Context, device string, layout window.Layout, slots []window.Slot) error {
	if c.currentToken() == "" {
		if err := c.Login(ctx); err != nil {
			return err
		}
	}
	id, err := c.ResolveInverter(ctx, device)
	if err != nil {
		return err
	}
	reqs, err := c.controlRequests(id, layout, slots)
	if err != nil {
		return err
	}
	for _, r := range reqs {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		body, err := json.Marshal(r)
		if err != nil {
			return err
		}
		env, err := c.post(ctx, controlPath, body, c.currentToken())
		if err != nil {
			return fmt.Errorf("control cid %s: %w", r.CID, err)
		}
		c.log.Debugw("control write", map[string]any{"inverter": id, "cid": r.CID, "value": r.Value, "msg": env.Msg})
	}
	c.log.Infof("wrote %s schedule to inverter %s: %s", layout, id, window.Summary(slots))
	return nil
}

func (c *Client) controlRequests(id string, layout window.Layout, slots []window.Slot) ([]controlRequest, error) {
	if layout == window.LayoutLegacy {
		return []controlRequest{{InverterID: id, CID: c.cfg.LegacyCID, Value: LegacyValue(slots)}}, nil
	}
	if len(c.cfg.SlotCIDs) < len(slots) {
		return nil, fmt.Errorf("solis: %d slot_cids configured for %d slots", len(c.cfg.SlotCIDs), len(slots))
	}
	reqs := make([]controlRequest, len(slots))
	for i, s := range slots {
		reqs[i] = controlRequest{InverterID: id, CID: c.cfg.SlotCIDs[i], Value: s.Window()}
	}
	return reqs, nil
}

// LegacyValue joins the six fields of every slot, in order, with commas.
func LegacyValue(slots []window.Slot) string {
	parts := make([]string, 0, len(slots)*6)
	for _, s := range slots {
		parts = append(parts, s.ChargeCurrent, s.DischargeCurrent, s.ChargeStartTime, s.ChargeEndTime, s.DischargeStartTime, s.DischargeEndTime)
	}
	return strings.Join(parts, ",")
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// post sends a signed request, retrying transient failures. Authentication
// failures, client errors and API failure codes are not retried.
func (c *Client) post(ctx context.Context, resource string, body []byte, token string) (envelope, error) {
	var b backoff.BackOff = backoff.WithMaxRetries(c.newBackOff(), uint64(c.cfg.MaxRetries))
	b = backoff.WithContext(b, ctx)
	attempt := 0
	return backoff.RetryWithData(func() (envelope, error) {
		attempt++
		env, err := c.do(ctx, resource, body, token)
		if err != nil && !isPermanent(err) {
			c.log.Warnf("%s attempt %d failed: %v", resource, attempt, err)
		}
		return env, err
	}, b)
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.backoff()
	eb.MaxElapsedTime = 0
	return eb
}

func isPermanent(err error) bool {
	var p *backoff.PermanentError
	return errors.As(err, &p)
}

func (c *Client) do(ctx context.Context, resource string, body []byte, token string) (envelope, error) {
	var env envelope
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+resource, bytes.NewReader(body))
	if err != nil {
		return env, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	signHeaders(req.Header, c.cfg.KeyID, c.cfg.Secret, body, resource, c.now())
	if token != "" {
		req.Header.Set("token", token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return env, backoff.Permanent(ctx.Err())
		}
		return env, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return env, fmt.Errorf("failed to read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return env, backoff.Permanent(fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode))
	case resp.StatusCode >= 500:
		return env, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, raw)
	case resp.StatusCode != http.StatusOK:
		return env, backoff.Permanent(fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, raw))
	}
	if err := json.Unmarshal(cleanJSON(raw), &env); err != nil {
		return env, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if env.failed() {
		return env, backoff.Permanent(fmt.Errorf("%w: code %v: %s", ErrAPI, env.Code, env.Msg))
	}
	return env, nil
}
