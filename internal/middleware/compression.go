// Package middleware holds HTTP middleware shared by the API routes.
package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	CompressionLevel int // gzip level, 1 (fastest) to 9 (smallest)
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		CompressionLevel: 6,
	}
}

// CompressionMiddleware gzips response bodies for clients that accept it
type CompressionMiddleware struct {
	config CompressionConfig
	pool   sync.Pool
}

// NewCompressionMiddleware creates a new compression middleware
func NewCompressionMiddleware(config CompressionConfig) *CompressionMiddleware {
	level := config.CompressionLevel
	if level < gzip.BestSpeed || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}

	return &CompressionMiddleware{
		config: config,
		pool: sync.Pool{
			New: func() interface{} {
				gz, _ := gzip.NewWriterLevel(io.Discard, level)
				return gz
			},
		},
	}
}

// Handler returns the gin middleware
func (cm *CompressionMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodHead || !clientAcceptsGzip(c.Request) {
			c.Next()
			return
		}

		gz := cm.pool.Get().(*gzip.Writer)
		gz.Reset(c.Writer)

		c.Header("Content-Encoding", "gzip")
		c.Header("Vary", "Accept-Encoding")

		gzw := &gzipResponseWriter{ResponseWriter: c.Writer, gzipWriter: gz}
		c.Writer = gzw

		defer func() {
			// Bodiless responses (204, redirects) must not carry a gzip footer
			if !gzw.wroteBody {
				gz.Reset(io.Discard)
				c.Writer.Header().Del("Content-Encoding")
			}
			gz.Close()
			cm.pool.Put(gz)
			c.Writer = gzw.ResponseWriter
		}()

		c.Next()
	}
}

func clientAcceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name := strings.TrimSpace(strings.SplitN(enc, ";", 2)[0])
		if strings.EqualFold(name, "gzip") {
			return !strings.Contains(enc, "q=0") || strings.Contains(enc, "q=0.")
		}
	}
	return false
}

// gzipResponseWriter routes body writes through the gzip writer
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzipWriter *gzip.Writer
	wroteBody  bool
}

func (gzw *gzipResponseWriter) WriteHeader(statusCode int) {
	gzw.Header().Del("Content-Length")
	gzw.ResponseWriter.WriteHeader(statusCode)
}

func (gzw *gzipResponseWriter) Write(data []byte) (int, error) {
	if len(data) > 0 {
		gzw.wroteBody = true
	}
	gzw.Header().Del("Content-Length")
	return gzw.gzipWriter.Write(data)
}

func (gzw *gzipResponseWriter) WriteString(s string) (int, error) {
	return gzw.Write([]byte(s))
}

// Flush pushes buffered compressed bytes to the client
func (gzw *gzipResponseWriter) Flush() {
	_ = gzw.gzipWriter.Flush()
	gzw.ResponseWriter.Flush()
}
