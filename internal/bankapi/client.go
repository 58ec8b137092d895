package bankapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"mbank/internal/crypto"
	"mbank/internal/domain"
	"mbank/internal/problem"
)

// DefaultTimeout bounds every request when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Response bodies larger than this are treated as malformed.
const maxBodyBytes = 1 << 20

// Config wires a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// HTTP is copied; its Timeout is set from Timeout when zero.
	HTTP    *http.Client
	Signer  *crypto.Signer
	Logger  *slog.Logger
	Metrics *Metrics
	// NewIdempotencyKey defaults to uuid.NewString.
	NewIdempotencyKey func() string
}

// Client talks to the bank backend.
type Client struct {
	base    string
	http    *http.Client
	signer  *crypto.Signer
	log     *slog.Logger
	metrics *Metrics
	newKey  func() string
}

var _ domain.BankAPI = (*Client)(nil)

// New validates cfg and returns a ready Client.
func New(cfg Config) (*Client, error) {
	if cfg.Signer == nil {
		return nil, fmt.Errorf("%w: bankapi: checksum signer is required", domain.ErrConfiguration)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: bankapi: invalid base URL %q", domain.ErrConfiguration, cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := &http.Client{}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		hc = &c
	}
	if hc.Timeout == 0 {
		hc.Timeout = timeout
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	newKey := cfg.NewIdempotencyKey
	if newKey == nil {
		newKey = uuid.NewString
	}

	return &Client{
		base:    base,
		http:    hc,
		signer:  cfg.Signer,
		log:     log.With("component", "bankapi"),
		metrics: cfg.Metrics,
		newKey:  newKey,
	}, nil
}

type request struct {
	op             string
	method         string
	path           string
	token          string
	body           []byte
	idempotencyKey string
}

// call performs r and turns every outcome into a Result. decode receives the
// raw body of a 2xx response.
func call[T any](ctx context.Context, c *Client, r request, decode func([]byte) (T, error)) (res problem.Result[T]) {
	start := time.Now()
	defer func() { c.finish(r.op, res.Kind, res.Status, time.Since(start)) }()

	status, body, tag := c.send(ctx, r)
	if tag == problem.TagNone {
		tag = problem.FromStatus(status)
	}
	if tag != problem.TagNone {
		p, ok := problem.Classify(problem.Outcome{Tag: tag, Status: status, Message: errorMessage(body)})
		if !ok {
			return problem.Cancelled[T]()
		}
		return problem.Fail[T](p)
	}

	data, err := decode(body)
	if err != nil {
		p := problem.BadData(err.Error())
		p.Status = status
		return problem.Fail[T](p)
	}
	res = problem.OK(data)
	res.Status = status
	return res
}

// send returns the status and body, or the transport tag of the failure.
func (c *Client) send(ctx context.Context, r request) (int, []byte, problem.Tag) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.base+r.path, body)
	if err != nil {
		return 0, nil, problem.TagUnknown
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", r.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, transportTag(ctx, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if tag := transportTag(ctx, err); tag == problem.TagCancelled || tag == problem.TagTimeout {
			return resp.StatusCode, nil, tag
		}
		return resp.StatusCode, nil, problem.TagNetwork
	}
	return resp.StatusCode, b, problem.TagNone
}

func (c *Client) finish(op string, kind problem.Kind, status int, d time.Duration) {
	c.metrics.observe(op, kind, d)
	c.log.Debug("api call",
		"operation", op,
		"status", status,
		"kind", kind.String(),
		"duration", d,
	)
}

// local reports a request rejected before it left the process.
func local[T any](c *Client, op string, err error) problem.Result[T] {
	res := problem.Fail[T](problem.BadData(err.Error()))
	c.finish(op, res.Kind, 0, 0)
	return res
}

// transportTag maps a client-side failure onto the classifier's tags.
func transportTag(ctx context.Context, err error) problem.Tag {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return problem.TagCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return problem.TagTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return problem.TagTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return problem.TagConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return problem.TagConnection
		}
		return problem.TagNetwork
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) {
		return problem.TagNetwork
	}
	return problem.TagUnknown
}
