package internal

import (
	"net/http"
	"path"
	"strings"
)

// hiddenFiles are site files that stay private even though they live in the
// served root.
var hiddenFiles = map[string]bool{
	"bijou.toml": true,
	"bijou.yaml": true,
	"bijou.yml":  true,
	"bijou.json": true,
}

type StaticHandler struct {
	files http.Handler
}

// NewStaticHandler serves root as-is, refusing dotfiles and the site config.
func NewStaticHandler(root string) *StaticHandler {
	return &StaticHandler{files: http.FileServer(http.Dir(root))}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if isHiddenPath(r.URL.Path) {
		http.NotFound(w, r)
		return
	}

	h.files.ServeHTTP(w, r)
}

func isHiddenPath(reqPath string) bool {
	clean := path.Clean("/" + reqPath)
	for _, seg := range strings.Split(clean, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
	}
	return hiddenFiles[path.Base(clean)] && path.Dir(clean) == "/"
}
