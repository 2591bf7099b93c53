package iolib

import (
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var ErrUnknownEncoding = errors.New("unknown text encoding")

func lookupEncoding(name string) (encoding.Encoding, string, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, "", errors.Wrapf(ErrUnknownEncoding, "%q", name)
	}

	canonical, err := htmlindex.Name(enc)
	if err != nil {
		return nil, "", errors.Wrapf(ErrUnknownEncoding, "%q", name)
	}

	return enc, canonical, nil
}

// transcode converts text from external into internal encoding.
// Go strings are UTF-8, so the text goes through UTF-8 on the way.
func transcode(text []byte, external, internal string) ([]byte, error) {
	extEnc, extName, err := lookupEncoding(external)
	if err != nil {
		return nil, errors.Wrap(err, "external encoding")
	}
	intEnc, intName, err := lookupEncoding(internal)
	if err != nil {
		return nil, errors.Wrap(err, "internal encoding")
	}

	if extName == intName {
		return text, nil
	}

	decoded := text
	if extName != "utf-8" {
		if decoded, err = extEnc.NewDecoder().Bytes(text); err != nil {
			return nil, errors.Wrapf(err, "decoding %s", extName)
		}
	}

	if intName == "utf-8" {
		return decoded, nil
	}

	encoded, err := intEnc.NewEncoder().Bytes(decoded)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s", intName)
	}
	return encoded, nil
}

// decodeText applies the encodings src declares, if any.
func decodeText(src PartialReader, text []byte) ([]byte, error) {
	e, ok := src.(Encoded)
	if !ok {
		return text, nil
	}

	external, internal := e.Encodings()
	if external == "" || internal == "" {
		return text, nil
	}

	return transcode(text, external, internal)
}
