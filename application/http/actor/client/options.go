package client

import (
	"time"

	"wirehttp/transport/middleware"
)

type Options struct {
	Send    SendOptions
	Conn    ConnOptions
	Timeout TimeoutOptions

	Transport middleware.Options
}

type SendOptions struct {
	UserAgent string
	Accept    string

	// ExtraFields are added to every request after the default ones.
	ExtraFields [][2]string
}

type ConnOptions struct {
	// MaxIdleConnsPerHost is the number of connections kept for reuse.
	// Zero disables keep-alive.
	MaxIdleConnsPerHost uint
}

type TimeoutOptions struct {
	// IdleTimeout closes idle connections on their next use. Zero means no timeout.
	IdleTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Send: SendOptions{
			UserAgent: "wirehttp",
			Accept:    "*/*",
		},
		Conn: ConnOptions{
			MaxIdleConnsPerHost: 2,
		},
		Timeout: TimeoutOptions{
			IdleTimeout: 90 * time.Second,
		},
	}
}
