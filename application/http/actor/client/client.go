package client

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"wirehttp/application/http"
	"wirehttp/application/http/h1"
	"wirehttp/transport/middleware"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const (
	HTTPDefaultPort  uint16 = 80
	HTTPSDefaultPort uint16 = 443
)

var (
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrMissingHostname   = errors.New("missing hostname")
)

type Response struct {
	Status  int
	Version http.Version
	// Headers doesn't contain :status.
	Headers *http.Headers
	Body    []byte
}

// Client issues requests over connections made by a middleware chain.
// Each request runs on its own connection or on an idle one left by a previous request.
type Client struct {
	chain middleware.Connector
	pool  *connPool

	opts Options

	logger *slog.Logger
}

func New(
	chain middleware.Connector,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		chain:  chain,
		pool:   newConnPool(opts.Conn.MaxIdleConnsPerHost, opts.Timeout.IdleTimeout, clock),
		opts:   opts,
		logger: logger,
	}
}

// Request sends a request without body and reads the whole response.
func (c *Client) Request(ctx context.Context, method, rawURL string) (*Response, error) {
	key, target, err := parseTarget(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing url %q", rawURL)
	}

	headers := c.requestHeaders(method, key, target)

	conn, reused, err := c.getConn(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "getting connection")
	}

	res, started, err := c.roundtrip(conn, headers)
	if err != nil && reused && !started {
		// The server may have closed the idle connection. Retry once on a new one.
		c.logger.Debug("retrying on new connection", slog.String("origin", key.String()), slog.Any("error", err))
		_ = conn.Close()

		conn, err = c.dial(ctx, key)
		if err != nil {
			return nil, errors.Wrap(err, "getting connection")
		}
		res, _, err = c.roundtrip(conn, headers)
	}
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "error while request-response roundtrip")
	}

	c.release(key, conn, res)

	return res, nil
}

// Close closes idle connections.
func (c *Client) Close() error {
	return c.pool.closeAll()
}

func parseTarget(rawURL string) (connKey, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return connKey{}, "", err
	}

	key := connKey{scheme: u.Scheme, hostname: u.Hostname()}
	if key.hostname == "" {
		return connKey{}, "", ErrMissingHostname
	}

	switch u.Scheme {
	case "http":
		key.port = HTTPDefaultPort
	case "https":
		key.port = HTTPSDefaultPort
	default:
		return connKey{}, "", errors.Wrapf(ErrUnsupportedScheme, "%q", u.Scheme)
	}

	if rawPort := u.Port(); rawPort != "" {
		port, err := strconv.ParseUint(rawPort, 10, 16)
		if err != nil {
			return connKey{}, "", errors.Wrapf(err, "invalid port %q", rawPort)
		}
		key.port = uint16(port)
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.1
	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	return key, target, nil
}

func (c *Client) requestHeaders(method string, key connKey, target string) *http.Headers {
	host := key.hostname
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if (key.scheme == "http" && key.port != HTTPDefaultPort) || (key.scheme == "https" && key.port != HTTPSDefaultPort) {
		host += ":" + strconv.Itoa(int(key.port))
	}

	headers := http.NewHeaders()
	headers.Set(http.PseudoMethod, method)
	headers.Set(http.PseudoPath, target)
	headers.Set(http.FieldHost, host)

	if ua := c.opts.Send.UserAgent; ua != "" {
		headers.Set("user-agent", ua)
	}
	if accept := c.opts.Send.Accept; accept != "" {
		headers.Set("accept", accept)
	}
	for _, field := range c.opts.Send.ExtraFields {
		headers.Add(field[0], field[1])
	}

	return headers
}

func (c *Client) getConn(ctx context.Context, key connKey) (conn *h1.Conn, reused bool, err error) {
	if conn, ok := c.pool.get(key); ok {
		return conn, true, nil
	}

	conn, err = c.dial(ctx, key)
	return conn, false, err
}

func (c *Client) dial(ctx context.Context, key connKey) (*h1.Conn, error) {
	if key.scheme == "https" {
		return c.chain.ConnectHTTPS(ctx, key.hostname, key.port, c.opts.Transport)
	}
	return c.chain.ConnectHTTP(ctx, key.hostname, key.port, c.opts.Transport)
}

// roundtrip runs one exchange on conn.
// started reports whether a status line was received.
func (c *Client) roundtrip(conn *h1.Conn, headers *http.Headers) (_ *Response, started bool, _ error) {
	stream, err := conn.OpenStream()
	if err != nil {
		return nil, false, errors.Wrap(err, "opening stream")
	}

	if err := stream.WriteHeaders(headers); err != nil {
		return nil, false, errors.Wrap(err, "writing request")
	}
	if err := stream.Flush(); err != nil {
		return nil, false, errors.Wrap(err, "writing request")
	}

	var received *http.Headers
	for {
		received, err = stream.ReadHeaders()
		if err != nil {
			return nil, conn.Status() != 0, errors.Wrap(err, "reading response header")
		}

		// Skip informational responses.
		if status := conn.Status(); status < 100 || status > 199 {
			break
		}
	}

	body, err := stream.Body().ReadAll()
	if err != nil && err != io.EOF {
		return nil, true, errors.Wrap(err, "reading body")
	}
	if body == nil {
		body = []byte{}
	}

	received.Del(http.PseudoStatus)

	return &Response{
		Status:  conn.Status(),
		Version: conn.Version(),
		Headers: received,
		Body:    body,
	}, true, nil
}

func (c *Client) release(key connKey, conn *h1.Conn, res *Response) {
	if !c.keepAlive(conn, res) {
		_ = conn.Close()
		return
	}

	if kept := c.pool.put(key, conn); kept {
		c.logger.Debug("connection kept for reuse", slog.String("origin", key.String()))
	}
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-9.6
func (c *Client) keepAlive(conn *h1.Conn, res *Response) bool {
	if c.opts.Conn.MaxIdleConnsPerHost == 0 || !conn.Reusable() {
		return false
	}

	if res.Version != http.Version11 {
		return false
	}

	if value, ok := res.Headers.Get("connection"); ok {
		for _, option := range http.SplitList(value) {
			if strings.EqualFold(option, "close") {
				return false
			}
		}
	}

	return true
}
