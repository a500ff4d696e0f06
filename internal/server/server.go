package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// RouterOptions toggles optional middleware.
type RouterOptions struct {
	Zstd bool
}

func NewRouter(server *Server, opts RouterOptions, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(zapLoggerMiddleware(logger))

	compressed := func(g chi.Router) {
		if opts.Zstd {
			g.Use(zstdMiddleware)
		}
	}

	r.Group(func(g chi.Router) {
		compressed(g)
		g.Get("/healthz", server.Health)
	})

	r.Route("/v1", func(v1 chi.Router) {
		// Upgraded connections are hijacked, so the stream stays outside
		// the compressing writer.
		if server.events != nil {
			v1.Get("/stream", server.events.ServeWS)
		}

		v1.Group(func(g chi.Router) {
			compressed(g)
			g.Get("/dates", server.Dates)
			g.Get("/lots", server.Lots)
			g.Get("/moneyflow/{symbol}/{date}", server.MoneyFlow)
			g.Get("/moneyflow/{symbol}/{date}/summary", server.Summary)
			g.Post("/cache/reset", server.ResetCache)
		})
	})

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func zapLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// precompressed content types pass through the zstd writer untouched.
var precompressed = map[string]bool{
	contentTypeXLSX:   true,
	"application/zip": true,
}

// zstdResponseWriter picks compression when the handler writes its header,
// once the content type is known.
type zstdResponseWriter struct {
	http.ResponseWriter
	encoder     *zstd.Encoder
	wroteHeader bool
}

func (w *zstdResponseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	h := w.Header()
	h.Add("Vary", "Accept-Encoding")
	if !precompressed[h.Get("Content-Type")] {
		if encoder, err := zstd.NewWriter(w.ResponseWriter); err == nil {
			w.encoder = encoder
			h.Set("Content-Encoding", "zstd")
			h.Del("Content-Length")
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *zstdResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.encoder == nil {
		return w.ResponseWriter.Write(b)
	}
	return w.encoder.Write(b)
}

func (w *zstdResponseWriter) Close() error {
	if w.encoder == nil {
		return nil
	}
	return w.encoder.Close()
}

// zstdMiddleware compresses responses for clients that accept zstd.
func zstdMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "zstd") {
			next.ServeHTTP(w, r)
			return
		}

		zw := &zstdResponseWriter{ResponseWriter: w}
		defer zw.Close()

		next.ServeHTTP(zw, r)
	})
}
