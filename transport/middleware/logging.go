package middleware

import (
	"context"
	"log/slog"
	"net"

	"wirehttp/application/http/h1"
)

// Logging logs every connect call passing through it.
type Logging struct {
	logger *slog.Logger
}

var _ Middleware = (*Logging)(nil)

func NewLogging(logger *slog.Logger) *Logging {
	return &Logging{logger: logger}
}

func (l *Logging) ConnectTCP(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (net.Conn, error) {
	conn, err := next.ConnectTCP(ctx, hostname, port, opts)
	l.log(ctx, "tcp", hostname, port, err)
	return conn, err
}

func (l *Logging) ConnectTLS(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (net.Conn, error) {
	conn, err := next.ConnectTLS(ctx, hostname, port, opts)
	l.log(ctx, "tls", hostname, port, err)
	return conn, err
}

func (l *Logging) ConnectHTTP(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (*h1.Conn, error) {
	conn, err := next.ConnectHTTP(ctx, hostname, port, opts)
	l.log(ctx, "http", hostname, port, err)
	return conn, err
}

func (l *Logging) ConnectHTTPS(ctx context.Context, root, next Connector, hostname string, port uint16, opts Options) (*h1.Conn, error) {
	conn, err := next.ConnectHTTPS(ctx, hostname, port, opts)
	l.log(ctx, "https", hostname, port, err)
	return conn, err
}

func (l *Logging) log(ctx context.Context, layer, hostname string, port uint16, err error) {
	attrs := []slog.Attr{
		slog.String("layer", layer),
		slog.String("host", hostname),
		slog.Int("port", int(port)),
	}

	if err != nil {
		l.logger.LogAttrs(ctx, slog.LevelWarn, "failed to connect", append(attrs, slog.Any("error", err))...)
		return
	}
	l.logger.LogAttrs(ctx, slog.LevelDebug, "connected", attrs...)
}
