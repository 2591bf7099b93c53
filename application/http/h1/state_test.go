package h1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteStateTransition(t *testing.T) {
	testcases := []struct {
		from, to writeState
		ok       bool
	}{
		{writeHeader, writeFin, true},
		{writeFin, writeHeader, true},
		{writeHeader, writeHeader, false},
		{writeFin, writeFin, false},
	}
	for _, tc := range testcases {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			got, err := tc.from.transition(tc.to)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrProtocolState)
				assert.Equal(t, tc.from, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.to, got)
		})
	}
}

func TestReadStateTransition(t *testing.T) {
	all := []readState{readHeader, readLengthDelimited, readChunked, readIndefinite}
	allowed := map[[2]readState]bool{
		{readHeader, readHeader}:          true,
		{readHeader, readLengthDelimited}: true,
		{readHeader, readChunked}:         true,
		{readHeader, readIndefinite}:      true,
		{readLengthDelimited, readHeader}: true,
	}

	for _, from := range all {
		for _, to := range all {
			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				got, err := from.transition(to)
				if !allowed[[2]readState{from, to}] {
					assert.ErrorIs(t, err, ErrProtocolState)
					assert.Equal(t, from, got)
					return
				}
				assert.NoError(t, err)
				assert.Equal(t, to, got)
			})
		}
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "fin", writeFin.String())
	assert.Equal(t, "length-delimited", readLengthDelimited.String())
	assert.Equal(t, "unknown", readState(42).String())
	assert.Equal(t, "unknown", writeState(42).String())
}
