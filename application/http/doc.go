// Package http implements the HTTP/1.1 message grammar:
// line termination, status line, field lines and obsolete line folding.
// It does no I/O by itself.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
