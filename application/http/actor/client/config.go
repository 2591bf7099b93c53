package client

import (
	"crypto/tls"
	"log/slog"
	"slices"
	"strings"
	"time"

	"wirehttp/application/http/h1"
	"wirehttp/transport/middleware"

	"github.com/BurntSushi/toml"
	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"golang.org/x/net/proxy"
)

var ErrInvalidConfig = errors.New("invalid client config")

// Duration is a time.Duration written as a string like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return errors.New("duration string cannot be empty")
	}

	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration string %q", text)
	}
	if parsed < 0 {
		return errors.Errorf("duration must not be negative, got %q", text)
	}

	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Config is the file representation of a client.
//
//	user_agent = "wirehttp"
//	dial_timeout = "5s"
//	deadline = "30s"
//
//	[socks5]
//	host = "127.0.0.1"
//	port = 1080
type Config struct {
	UserAgent string            `toml:"user_agent"`
	Accept    string            `toml:"accept"`
	Fields    map[string]string `toml:"fields"`

	DialTimeout Duration `toml:"dial_timeout"`
	// Deadline is set on every connection once it is established.
	// It is absolute, so a kept-alive connection fails once it passes;
	// the idle timeout is capped at Deadline and a request failing on such
	// a connection is retried once on a new one.
	Deadline    Duration `toml:"deadline"`
	IdleTimeout Duration `toml:"idle_timeout"`

	MaxIdleConnsPerHost *uint `toml:"max_idle_conns_per_host"`
	InsecureSkipVerify  bool  `toml:"insecure_skip_verify"`
	LogConnections      bool  `toml:"log_connections"`
	LogExchanges        bool  `toml:"log_exchanges"`

	SOCKS5 *SOCKS5Config `toml:"socks5"`
}

type SOCKS5Config struct {
	Host     string `toml:"host"`
	Port     uint16 `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

func LoadConfig(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "decoding %s", path)
	}
	return cfg, checkDecoded(md, cfg)
}

func ParseConfig(data string) (Config, error) {
	var cfg Config
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}
	return cfg, checkDecoded(md, cfg)
}

func checkDecoded(md toml.MetaData, cfg Config) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return errors.Wrapf(ErrInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}

	if cfg.SOCKS5 != nil && (cfg.SOCKS5.Host == "" || cfg.SOCKS5.Port == 0) {
		return errors.Wrap(ErrInvalidConfig, "socks5 requires host and port")
	}

	return nil
}

// Options returns client options. Unset values are taken from [DefaultOptions].
func (cfg Config) Options(logger *slog.Logger) Options {
	opts := DefaultOptions()

	if cfg.UserAgent != "" {
		opts.Send.UserAgent = cfg.UserAgent
	}
	if cfg.Accept != "" {
		opts.Send.Accept = cfg.Accept
	}

	names := make([]string, 0, len(cfg.Fields))
	for name := range cfg.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		opts.Send.ExtraFields = append(opts.Send.ExtraFields, [2]string{name, cfg.Fields[name]})
	}

	if cfg.MaxIdleConnsPerHost != nil {
		opts.Conn.MaxIdleConnsPerHost = *cfg.MaxIdleConnsPerHost
	}
	if cfg.IdleTimeout != 0 {
		opts.Timeout.IdleTimeout = time.Duration(cfg.IdleTimeout)
	}
	if deadline := time.Duration(cfg.Deadline); deadline != 0 &&
		(opts.Timeout.IdleTimeout == 0 || opts.Timeout.IdleTimeout > deadline) {
		opts.Timeout.IdleTimeout = deadline
	}

	opts.Transport.DialTimeout = time.Duration(cfg.DialTimeout)
	if cfg.InsecureSkipVerify {
		opts.Transport.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.LogExchanges && logger != nil {
		opts.Transport.ConnOptions = append(opts.Transport.ConnOptions, h1.WithLogger(logger))
	}

	return opts
}

// Middlewares returns the chain described by cfg, ending with [middleware.Base].
func (cfg Config) Middlewares(logger *slog.Logger, clock clock.Clock) []middleware.Middleware {
	var ms []middleware.Middleware

	if cfg.LogConnections {
		ms = append(ms, middleware.NewLogging(logger))
	}
	if cfg.Deadline != 0 {
		ms = append(ms, middleware.NewDeadline(time.Duration(cfg.Deadline), clock))
	}
	if cfg.SOCKS5 != nil {
		var auth *proxy.Auth
		if cfg.SOCKS5.Username != "" {
			auth = &proxy.Auth{User: cfg.SOCKS5.Username, Password: cfg.SOCKS5.Password}
		}
		ms = append(ms, middleware.NewSOCKS5(cfg.SOCKS5.Host, cfg.SOCKS5.Port, auth))
	}

	return append(ms, middleware.NewBase())
}

// NewFromConfig builds a client with the chain described by cfg.
// extra middlewares are placed right before the base layer.
func NewFromConfig(cfg Config, logger *slog.Logger, clock clock.Clock, extra ...middleware.Middleware) *Client {
	ms := cfg.Middlewares(logger, clock)
	ms = slices.Insert(ms, len(ms)-1, extra...)
	return New(middleware.Build(ms...), logger, clock, cfg.Options(logger))
}
