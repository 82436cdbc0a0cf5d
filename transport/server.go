package transport

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	proton "github.com/starfederation/proton-go"
)

// DefaultMaxBodyBytes bounds request bodies when a handler has no limit.
const DefaultMaxBodyBytes = 1 << 20

// HandlerFunc answers a decoded ProtoN request.
type HandlerFunc func(ctx context.Context, req proton.Value) (proton.Value, error)

// Handler serves POST requests carrying ProtoN bodies.
type Handler struct {
	Fn           HandlerFunc
	Codec        proton.Codec
	MaxBodyBytes int64
}

// Handle wraps fn with default limits.
func Handle(fn HandlerFunc) *Handler {
	return &Handler{Fn: fn, MaxBodyBytes: DefaultMaxBodyBytes}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := ReadValue(r, h.Codec, h.limit())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.Fn(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.Codec.Encode(resp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := writeMessage(w, http.StatusOK, msg); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("write response")
	}
}

func (h *Handler) limit() int64 {
	if h.MaxBodyBytes <= 0 {
		return DefaultMaxBodyBytes
	}
	return h.MaxBodyBytes
}

// statusFor maps codec and transport errors to HTTP status codes.
func statusFor(err error) int {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return se.Code
	case errors.Is(err, ErrContentType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrBodyTooLong):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, proton.ErrMalformedMessage),
		errors.Is(err, proton.ErrUnsupportedVersion),
		errors.Is(err, proton.ErrInvalidUTF8),
		errors.Is(err, proton.ErrTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	level := zerolog.WarnLevel
	if status >= 500 {
		level = zerolog.ErrorLevel
	}
	hlog.FromRequest(r).WithLevel(level).Err(err).Int("status", status).Msg("request failed")
	http.Error(w, err.Error(), status)
}

// Echo answers POST with the decoded request re-encoded, and GET with an
// object holding the first value of each query parameter.
func Echo(codec proton.Codec, maxBodyBytes int64) http.Handler {
	post := &Handler{
		Fn: func(_ context.Context, req proton.Value) (proton.Value, error) {
			return req, nil
		},
		Codec:        codec,
		MaxBodyBytes: maxBodyBytes,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			post.ServeHTTP(w, r)
			return
		}
		query := r.URL.Query()
		keys := make([]string, 0, len(query))
		for k := range query {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]proton.Member, len(keys))
		for i, k := range keys {
			members[i] = proton.Pair(k, proton.String(query.Get(k)))
		}
		if err := WriteValue(w, http.StatusOK, codec, proton.Object(members...)); err != nil {
			writeError(w, r, err)
		}
	})
}

// NewMux returns the echo server routes.
func NewMux(codec proton.Codec, maxBodyBytes int64) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/echo", Echo(codec, maxBodyBytes))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// Middleware attaches logger to each request and logs one access line per
// response.
func Middleware(logger zerolog.Logger, next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(next)
	h = hlog.URLHandler("url")(h)
	h = hlog.MethodHandler("method")(h)
	h = hlog.RemoteAddrHandler("remote")(h)
	return hlog.NewHandler(logger)(h)
}

// ServerOptions configures NewServer.
type ServerOptions struct {
	Addr         string
	MaxBodyBytes int64
	MaxDepth     int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// H2C serves HTTP/2 over cleartext alongside HTTP/1.1.
	H2C bool
}

// NewServer builds the echo server.
func NewServer(opts ServerOptions, logger zerolog.Logger) *http.Server {
	codec := proton.Codec{MaxDepth: opts.MaxDepth}
	var handler http.Handler = Middleware(logger, NewMux(codec, opts.MaxBodyBytes))
	if opts.H2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	return &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
}
