package http

import (
	"strconv"
)

// [Major, Minor]
type Version [2]uint

var Version11 = Version{1, 1}

// Number returns the version without the HTTP-name, e.g. "1.1".
func (ver Version) Number() string {
	return strconv.FormatUint(uint64(ver[0]), 10) + "." + strconv.FormatUint(uint64(ver[1]), 10)
}

func (ver Version) Text() []byte { return []byte(ver.String()) }

func (ver Version) String() string { return "HTTP/" + ver.Number() }
