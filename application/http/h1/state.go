package h1

import (
	"github.com/pkg/errors"
)

var ErrProtocolState = errors.New("operation is not allowed in current state")

type writeState uint8

const (
	writeHeader writeState = iota
	writeFin
)

func (s writeState) String() string {
	switch s {
	case writeHeader:
		return "header"
	case writeFin:
		return "fin"
	}
	return "unknown"
}

// transition returns to if the move from s is defined.
//
//	header -> fin    request header written
//	fin    -> header next exchange
func (s writeState) transition(to writeState) (writeState, error) {
	switch {
	case s == writeHeader && to == writeFin,
		s == writeFin && to == writeHeader:
		return to, nil
	}
	return s, errors.Wrapf(ErrProtocolState, "write state %s -> %s", s, to)
}

type readState uint8

const (
	readHeader readState = iota
	readLengthDelimited
	readChunked
	readIndefinite
)

func (s readState) String() string {
	switch s {
	case readHeader:
		return "header"
	case readLengthDelimited:
		return "length-delimited"
	case readChunked:
		return "chunked"
	case readIndefinite:
		return "indefinite"
	}
	return "unknown"
}

// transition returns to if the move from s is defined.
//
//	header           -> header            informational response
//	header           -> length-delimited, chunked, indefinite
//	length-delimited -> header            next exchange
func (s readState) transition(to readState) (readState, error) {
	switch s {
	case readHeader:
		switch to {
		case readHeader, readLengthDelimited, readChunked, readIndefinite:
			return to, nil
		}
	case readLengthDelimited:
		if to == readHeader {
			return to, nil
		}
	}
	return s, errors.Wrapf(ErrProtocolState, "read state %s -> %s", s, to)
}
