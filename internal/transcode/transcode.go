// Package transcode converts captured audio to and from the text-safe
// encoding carried in JSON request bodies.
package transcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// DefaultChunkSize is the number of encoded characters decoded per pass.
const DefaultChunkSize = 32768

// ErrMalformedPayload is returned when the input is not valid base64.
var ErrMalformedPayload = errors.New("malformed audio payload")

// Encode returns the standard base64 encoding of data.
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode decodes s in DefaultChunkSize pieces.
func Decode(s string) ([]byte, error) {
	return DecodeChunked(s, DefaultChunkSize)
}

// DecodeChunked decodes s chunkSize characters at a time into one contiguous
// buffer. chunkSize must be a positive multiple of 4 so that every chunk but
// the last holds whole quanta. A browser data URL prefix is accepted.
func DecodeChunked(s string, chunkSize int) ([]byte, error) {
	if chunkSize <= 0 || chunkSize%4 != 0 {
		return nil, fmt.Errorf("chunk size %d is not a positive multiple of 4", chunkSize)
	}

	s = stripDataURL(s)
	if len(s)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of 4", ErrMalformedPayload, len(s))
	}

	out := make([]byte, DecodedLen(s))
	offset := 0
	for start := 0; start < len(s); start += chunkSize {
		end := min(start+chunkSize, len(s))
		n, err := base64.StdEncoding.Decode(out[offset:], []byte(s[start:end]))
		if err != nil {
			var corrupt base64.CorruptInputError
			if errors.As(err, &corrupt) {
				return nil, fmt.Errorf("%w: invalid byte at offset %d", ErrMalformedPayload, start+int(corrupt))
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		// Padding inside a non-final chunk would leave a gap in the output.
		if end < len(s) && n != base64.StdEncoding.DecodedLen(end-start) {
			return nil, fmt.Errorf("%w: padding before offset %d", ErrMalformedPayload, end)
		}
		offset += n
	}

	return out[:offset], nil
}

// EncodedLen returns the length of the encoding of n bytes.
func EncodedLen(n int) int {
	return base64.StdEncoding.EncodedLen(n)
}

// DecodedLen returns the exact number of bytes s decodes to, assuming it is
// well formed.
func DecodedLen(s string) int {
	n := base64.StdEncoding.DecodedLen(len(s))
	if strings.HasSuffix(s, "==") {
		return n - 2
	}
	if strings.HasSuffix(s, "=") {
		return n - 1
	}
	return n
}

func stripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if _, payload, ok := strings.Cut(s, ";base64,"); ok {
		return payload
	}
	return s
}
