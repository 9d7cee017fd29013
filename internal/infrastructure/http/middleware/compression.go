package middleware

import (
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// compressWriter negotiates the encoding on the first body write so empty
// responses stay uncompressed
type compressWriter struct {
	gin.ResponseWriter
	request *http.Request
	encoder io.WriteCloser
}

func (w *compressWriter) Write(b []byte) (int, error) {
	if w.encoder == nil {
		w.Header().Del("Content-Length")
		w.encoder = brotli.HTTPCompressor(w.ResponseWriter, w.request)
	}
	return w.encoder.Write(b)
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *compressWriter) close() error {
	if w.encoder == nil {
		return nil
	}
	return w.encoder.Close()
}

// Compression encodes responses with brotli or gzip, whichever the client
// prefers through Accept-Encoding
func (m *Middleware) Compression() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.config.Server.EnableCompression || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		cw := &compressWriter{ResponseWriter: c.Writer, request: c.Request}
		c.Writer = cw
		defer func() {
			if err := cw.close(); err != nil {
				m.logger.Debug("Failed to finish compressed response")
			}
			c.Writer = cw.ResponseWriter
		}()

		c.Next()
	}
}
