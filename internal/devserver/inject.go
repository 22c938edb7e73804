package devserver

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

const maxInjectSize = 2 << 20

var scriptTag = []byte(`<script async src="` + LiveReloadScript + `"></script>`)

// injectLiveReload adds the client script before </body> of HTML responses.
// Other responses, HEAD requests, partial content and HTML larger than the
// buffer limit pass through. Range is dropped from GET requests so pages are
// always served whole.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodGet && r.Header.Get("Range") != "" {
			r = r.Clone(r.Context())
			r.Header.Del("Range")
			r.Header.Del("If-Range")
		}
		inj := &injector{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

type injector struct {
	http.ResponseWriter
	status      int
	decided     bool
	passthrough bool
	buf         []byte
}

func (i *injector) decide() {
	if i.decided {
		return
	}
	i.decided = true
	h := i.ResponseWriter.Header()
	html := strings.Contains(h.Get("Content-Type"), "text/html") && h.Get("Content-Encoding") == ""
	switch i.status {
	case http.StatusNotModified, http.StatusNoContent, http.StatusPartialContent:
		html = false
	}
	if !html {
		i.passthrough = true
		i.ResponseWriter.WriteHeader(i.status)
	}
}

func (i *injector) WriteHeader(code int) {
	if i.decided {
		return
	}
	i.status = code
	i.decide()
}

func (i *injector) Write(p []byte) (int, error) {
	i.decide()
	if i.passthrough {
		return i.ResponseWriter.Write(p)
	}
	if len(i.buf)+len(p) > maxInjectSize {
		i.passthrough = true
		i.ResponseWriter.Header().Del("Content-Length")
		i.ResponseWriter.WriteHeader(i.status)
		if _, err := i.ResponseWriter.Write(i.buf); err != nil {
			return 0, err
		}
		i.buf = nil
		return i.ResponseWriter.Write(p)
	}
	i.buf = append(i.buf, p...)
	return len(p), nil
}

// Flush is a no-op while buffering so SSE-style handlers never see a partial page.
func (i *injector) Flush() {
	if i.passthrough {
		if f, ok := i.ResponseWriter.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func (i *injector) finalize() {
	i.decide()
	if i.passthrough {
		return
	}
	body := Inject(i.buf)
	i.ResponseWriter.Header().Set("Content-Length", strconv.Itoa(len(body)))
	i.ResponseWriter.WriteHeader(i.status)
	_, _ = i.ResponseWriter.Write(body)
}

// Inject inserts the live reload script before the last </body>, or appends
// it when the document has none.
func Inject(page []byte) []byte {
	if bytes.Contains(page, scriptTag) {
		return page
	}
	idx := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	out := make([]byte, 0, len(page)+len(scriptTag))
	if idx < 0 {
		out = append(out, page...)
		return append(out, scriptTag...)
	}
	out = append(out, page[:idx]...)
	out = append(out, scriptTag...)
	return append(out, page[idx:]...)
}

func (i *injector) Unwrap() http.ResponseWriter { return i.ResponseWriter }
