package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"neohub_monitor/internal/models"

	"golang.org/x/sync/errgroup"
)

const (
	loginEndpoint   = "hm_user_login"
	cacheEndpoint   = "hm_cache_value"
	setTempEndpoint = "hm_set_temp"
	setModeEndpoint = "hm_set_mode"
	setAwayEndpoint = "hm_set_away"
	historyEndpoint = "hm_get_history"

	defaultCacheValueRequest = "engineers,comfort,profile0,timeclock0,system,device_list,timeclock,live_info"

	statusOK     = 1
	statusCached = 201

	defaultFetchConcurrency = 4
	maxBodyBytes            = 8 << 20 // 8 MB
)

// Client talks to the NeoHub cloud API. All calls are form POSTs answered with
// a JSON object carrying a STATUS code. It holds no session state and never retries.
type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	concurrency int
	now         func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithConcurrency bounds the number of parallel per-device requests in FetchDevices.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a client for baseURL. timeout bounds every single request.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		baseURL:     baseURL,
		http:        &http.Client{},
		timeout:     timeout,
		concurrency: defaultFetchConcurrency,
		now:         time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Authenticate logs in and returns a session holding the token and device roster.
func (c *Client) Authenticate(ctx context.Context, cr Credentials) (*Session, error) {
	rec, err := c.postForm(ctx, loginEndpoint, url.Values{
		"USERNAME": {cr.Username},
		"PASSWORD": {cr.Password},
	})
	if err != nil {
		return nil, classifyReadError(loginEndpoint, "", err)
	}
	if st, _ := statusOf(rec); st != statusOK {
		return nil, &AuthError{Op: loginEndpoint, Message: fmt.Sprintf("status %v: %s", rec["STATUS"], errorText(rec))}
	}
	token, _ := Text(rec["TOKEN"])
	if token == "" {
		return nil, &AuthError{Op: loginEndpoint, Message: "login response carries no token"}
	}
	return &Session{
		Token:    token,
		Roster:   recordList(rec["devices"]),
		IssuedAt: c.now(),
	}, nil
}

// FetchDevices retrieves live zone records for every roster device. Offline
// roster devices are returned without zones. A device the hub declines to report
// is listed in Missing. Any transport or HTTP failure aborts the whole fetch.
func (c *Client) FetchDevices(ctx context.Context, s *Session) (RawDeviceSet, error) {
	if s == nil || s.Token == "" {
		return RawDeviceSet{}, &AuthError{Op: cacheEndpoint, Message: "no session"}
	}

	devices := make([]RawDevice, len(s.Roster))
	declined := make([]string, len(s.Roster))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, entry := range s.Roster {
		g.Go(func() error {
			devices[i] = RawDevice{Fields: entry}
			id, _ := Text(entry["deviceid"])
			if id == "" || !rosterOnline(entry) {
				return nil
			}
			zones, ok, err := c.fetchZones(gctx, s.Token, id)
			if err != nil {
				return err
			}
			if !ok {
				declined[i] = id
				return nil
			}
			devices[i].Zones = zones
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RawDeviceSet{}, err
	}

	set := RawDeviceSet{FetchedAt: c.now()}
	for i, d := range devices {
		if declined[i] != "" {
			set.Missing = append(set.Missing, declined[i])
			continue
		}
		set.Devices = append(set.Devices, d)
	}
	return set, nil
}

func (c *Client) fetchZones(ctx context.Context, token, deviceID string) ([]RawRecord, bool, error) {
	rec, err := c.postForm(ctx, cacheEndpoint, url.Values{
		"cache_value": {defaultCacheValueRequest},
		"device_id":   {deviceID},
		"token":       {token},
	})
	if err != nil {
		return nil, false, classifyReadError(cacheEndpoint, deviceID, err)
	}
	if st, _ := statusOf(rec); st != statusOK && st != statusCached {
		msg := errorText(rec)
		if looksLikeAuth(msg) {
			return nil, false, &AuthError{Op: cacheEndpoint, Message: msg}
		}
		return nil, false, nil
	}
	cache, _ := asRecord(rec["CACHE_VALUE"])
	live, _ := asRecord(cache["live_info"])
	return recordList(live["devices"]), true, nil
}

// SendCommand forwards a control command. The hub answers synchronously.
func (c *Client) SendCommand(ctx context.Context, s *Session, cmd Command) (Ack, error) {
	endpoint, form, err := commandForm(cmd)
	if err != nil {
		return Ack{}, err
	}
	if s == nil || s.Token == "" {
		return Ack{}, &CommandError{Kind: CommandAuth, Command: cmd.Kind, Message: "no session"}
	}
	form.Set("token", s.Token)

	rec, err := c.postForm(ctx, endpoint, form)
	if err != nil {
		return Ack{}, commandFailure(cmd.Kind, err)
	}
	if st, _ := statusOf(rec); st != statusOK {
		msg := errorText(rec)
		kind := CommandRejected
		if looksLikeAuth(msg) {
			kind = CommandAuth
		}
		return Ack{}, &CommandError{Kind: kind, Command: cmd.Kind, Message: msg}
	}
	return Ack{Command: cmd, AcceptedAt: c.now()}, nil
}

// History returns the temperature samples of one zone within r, oldest first.
func (c *Client) History(ctx context.Context, s *Session, deviceID, zone string, r Range) ([]HistoryPoint, error) {
	if s == nil || s.Token == "" {
		return nil, &AuthError{Op: historyEndpoint, Message: "no session"}
	}
	rec, err := c.postForm(ctx, historyEndpoint, url.Values{
		"device_id": {deviceID},
		"token":     {s.Token},
		"zone":      {zone},
	})
	if err != nil {
		return nil, classifyReadError(historyEndpoint, deviceID, err)
	}
	if st, _ := statusOf(rec); st != statusOK {
		msg := errorText(rec)
		if looksLikeAuth(msg) {
			return nil, &AuthError{Op: historyEndpoint, Message: msg}
		}
		return nil, &FetchError{Op: historyEndpoint, DeviceID: deviceID, Err: errors.New(msg)}
	}

	var points []HistoryPoint
	raw, _ := rec.Lookup("HISTORY", "history", "DATA", "data")
	for _, item := range recordList(raw) {
		p, ok := parseHistoryPoint(item)
		if ok && r.contains(p.Time) {
			points = append(points, p)
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

func parseHistoryPoint(item RawRecord) (HistoryPoint, bool) {
	v, ok := item.Lookup("TIME", "time", "timestamp", "DATE")
	if !ok {
		return HistoryPoint{}, false
	}
	ts, ok := parseTime(v)
	if !ok {
		return HistoryPoint{}, false
	}
	p := HistoryPoint{Time: ts}
	if v, ok := item.Lookup("ACTUAL_TEMP", "actual_temp", "temp"); ok {
		if f, ok := Float(v); ok {
			p.ActualTemp = models.Some(f)
		}
	}
	if v, ok := item.Lookup("SET_TEMP", "set_temp", "setpoint"); ok {
		if f, ok := Float(v); ok {
			p.SetTemp = models.Some(f)
		}
	}
	return p, true
}

func parseTime(v any) (time.Time, bool) {
	if s, ok := v.(string); ok {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				return t.UTC(), true
			}
		}
	}
	if f, ok := Float(v); ok && f > 0 {
		return time.Unix(int64(f), 0).UTC(), true
	}
	return time.Time{}, false
}

func commandForm(cmd Command) (string, url.Values, error) {
	invalid := func(msg string) error {
		return &CommandError{Kind: CommandInvalid, Command: cmd.Kind, Message: msg}
	}
	if cmd.DeviceID == "" {
		return "", nil, invalid("device id is required")
	}
	form := url.Values{"device_id": {cmd.DeviceID}}
	switch cmd.Kind {
	case CmdSetTemperature:
		if cmd.Zone == "" {
			return "", nil, invalid("zone is required")
		}
		form.Set("zone", cmd.Zone)
		form.Set("temperature", strconv.FormatFloat(cmd.Temperature, 'f', -1, 64))
		return setTempEndpoint, form, nil
	case CmdSetMode:
		if cmd.Zone == "" {
			return "", nil, invalid("zone is required")
		}
		switch cmd.Mode {
		case models.ModeHeat, models.ModeCool, models.ModeVent:
		default:
			return "", nil, invalid(fmt.Sprintf("mode %q is not supported; use Heat, Cool or Vent", cmd.Mode))
		}
		form.Set("zone", cmd.Zone)
		form.Set("mode", strings.ToUpper(string(cmd.Mode)))
		return setModeEndpoint, form, nil
	case CmdSetAway:
		away := "0"
		if cmd.Away {
			away = "1"
		}
		form.Set("away", away)
		return setAwayEndpoint, form, nil
	default:
		return "", nil, invalid("unknown command")
	}
}

// httpStatusError is a non-2xx answer.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected http status %d: %s", e.status, e.body)
}

var errDecode = errors.New("undecodable response body")

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (RawRecord, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &httpStatusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", errDecode, err)
	}
	return RawRecord(out), nil
}

func classifyReadError(op, deviceID string, err error) error {
	var se *httpStatusError
	switch {
	case errors.As(err, &se):
		if se.status == http.StatusUnauthorized || se.status == http.StatusForbidden {
			return &AuthError{Op: op, Status: se.status, Message: se.body}
		}
		transient := se.status >= 500 || se.status == http.StatusTooManyRequests
		return &FetchError{Op: op, DeviceID: deviceID, Status: se.status, Transient: transient, Err: err}
	case errors.Is(err, errDecode):
		return &FetchError{Op: op, DeviceID: deviceID, Err: err}
	default:
		return &FetchError{Op: op, DeviceID: deviceID, Transient: true, Err: err}
	}
}

func commandFailure(kind CommandKind, err error) error {
	var se *httpStatusError
	switch {
	case errors.As(err, &se):
		if se.status == http.StatusUnauthorized || se.status == http.StatusForbidden {
			return &CommandError{Kind: CommandAuth, Command: kind, Err: err}
		}
		if se.status >= 500 || se.status == http.StatusTooManyRequests {
			return &CommandError{Kind: CommandNetwork, Command: kind, Err: err}
		}
		return &CommandError{Kind: CommandRejected, Command: kind, Err: err}
	case errors.Is(err, errDecode):
		return &CommandError{Kind: CommandRejected, Command: kind, Err: err}
	default:
		return &CommandError{Kind: CommandNetwork, Command: kind, Err: err}
	}
}

func statusOf(rec RawRecord) (int, bool) {
	f, ok := Float(rec["STATUS"])
	if !ok {
		return 0, false
	}
	return int(f), true
}

func errorText(rec RawRecord) string {
	if v, ok := rec.Lookup("ERROR", "error", "MESSAGE"); ok {
		if s, ok := Text(v); ok {
			return s
		}
	}
	return "unknown error"
}

func looksLikeAuth(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "token") || strings.Contains(m, "login") || strings.Contains(m, "unauthori")
}

func rosterOnline(entry RawRecord) bool {
	v, ok := entry.Lookup("online")
	if !ok {
		return true
	}
	online, ok := Bool(v)
	return !ok || online
}
