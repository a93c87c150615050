package internal

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/olimci/bijou/pkg/utils/set"
)

const (
	ReloadPath  = "/_bijou/reload"
	reloadMsg   = "reload"
	pingEvery   = 2 * time.Second
	clientQueue = 8
)

type ReloadClient struct {
	Send chan string
}

// ReloadHub fans reload notifications out to every open event stream.
type ReloadHub struct {
	mu      sync.RWMutex
	clients *set.Set[*ReloadClient]
}

func NewReloadHub() *ReloadHub {
	return &ReloadHub{
		clients: set.New[*ReloadClient](),
	}
}

// Broadcast delivers msg to every client with room in its queue.
func (h *ReloadHub) Broadcast(msg string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients.Values() {
		select {
		case client.Send <- msg:
		default:
		}
	}
}

// Reload tells every open page to reload.
func (h *ReloadHub) Reload() {
	h.Broadcast(reloadMsg)
}

func (h *ReloadHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients.Len()
}

func (h *ReloadHub) Subscribe() *ReloadClient {
	client := &ReloadClient{Send: make(chan string, clientQueue)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients.Add(client)

	return client
}

func (h *ReloadHub) Unsubscribe(client *ReloadClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients.Delete(client)
}

// ServeHTTP streams server-sent events until the client goes away or is told
// to reload.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := h.Subscribe()
	defer h.Unsubscribe(client)

	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case msg := <-client.Send:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				return
			}
			flusher.Flush()
			if msg == reloadMsg {
				return
			}
		}
	}
}

var reloadScript = `<script>
(() => {
  const es = new EventSource("` + ReloadPath + `");
  es.onmessage = (event) => {
    if (event.data === "` + reloadMsg + `") {
      es.close();
      window.location.reload();
    }
  };
  window.addEventListener("beforeunload", () => es.close());
})();
</script>`

func injectReloadScript(page []byte) []byte {
	lower := bytes.ToLower(page)
	idx := bytes.LastIndex(lower, []byte("</body>"))
	if idx == -1 {
		idx = bytes.LastIndex(lower, []byte("</html>"))
	}
	if idx == -1 {
		return append(page, reloadScript...)
	}

	out := make([]byte, 0, len(page)+len(reloadScript))
	out = append(out, page[:idx]...)
	out = append(out, reloadScript...)
	return append(out, page[idx:]...)
}

// ReloadMiddleware buffers HTML responses and appends the live reload
// client before the closing body tag.
func ReloadMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !shouldInjectReload(r) {
			next.ServeHTTP(w, r)
			return
		}

		var body bytes.Buffer
		statusCode := 0

		hooks := httpsnoop.Hooks{
			WriteHeader: func(httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
				return func(code int) {
					if statusCode == 0 {
						statusCode = code
					}
				}
			},
			Write: func(httpsnoop.WriteFunc) httpsnoop.WriteFunc {
				return body.Write
			},
			ReadFrom: func(httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
				return func(src io.Reader) (int64, error) {
					return io.Copy(&body, src)
				}
			},
		}

		next.ServeHTTP(httpsnoop.Wrap(w, hooks), r)

		data := body.Bytes()
		contentType := w.Header().Get("Content-Type")
		if contentType == "" && len(data) > 0 {
			contentType = http.DetectContentType(data)
			w.Header().Set("Content-Type", contentType)
		}
		if strings.Contains(contentType, "text/html") && (statusCode == 0 || statusCode == http.StatusOK) {
			data = injectReloadScript(data)
		}

		if len(data) > 0 {
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		}
		if statusCode != 0 {
			w.WriteHeader(statusCode)
		}
		_, _ = w.Write(data)
	})
}

func shouldInjectReload(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if strings.HasPrefix(r.URL.Path, "/_bijou/") {
		return false
	}

	ext := strings.ToLower(path.Ext(r.URL.Path))
	if ext != "" && ext != ".html" && ext != ".htm" {
		return false
	}

	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html")
}
