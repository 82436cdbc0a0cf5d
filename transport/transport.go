// Package transport carries ProtoN messages over HTTP.
//
// The helpers only call proton.Codec Encode and Decode; they add request and
// response plumbing, not protocol logic.
package transport

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	proton "github.com/starfederation/proton-go"
)

// ContentType is the media type of ProtoN request and response bodies.
const ContentType = "application/x-proton"

var (
	ErrContentType = errors.New("transport: not a proton body")
	ErrBodyTooLong = errors.New("transport: body too long")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("transport: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("transport: unexpected status %d: %s", e.Code, e.Body)
}

func isProtonContentType(raw string) bool {
	mt, _, err := mime.ParseMediaType(raw)
	return err == nil && strings.EqualFold(mt, ContentType)
}

// readBody reads at most limit bytes of body.
func readBody(body io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLong, limit)
	}
	return data, nil
}

// ReadValue decodes the ProtoN body of r. Bodies over maxBytes fail with
// ErrBodyTooLong; other content types fail with ErrContentType.
func ReadValue(r *http.Request, codec proton.Codec, maxBytes int64) (proton.Value, error) {
	if !isProtonContentType(r.Header.Get("Content-Type")) {
		return proton.Value{}, fmt.Errorf("%w: %q", ErrContentType, r.Header.Get("Content-Type"))
	}
	data, err := readBody(r.Body, maxBytes)
	if err != nil {
		return proton.Value{}, err
	}
	return codec.Decode(data)
}

// WriteValue encodes v and writes it with status.
func WriteValue(w http.ResponseWriter, status int, codec proton.Codec, v proton.Value) error {
	msg, err := codec.Encode(v)
	if err != nil {
		return err
	}
	return writeMessage(w, status, msg)
}

func writeMessage(w http.ResponseWriter, status int, msg []byte) error {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	_, err := w.Write(msg)
	return err
}
