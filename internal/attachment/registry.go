package attachment

import (
	"net/url"
	"strings"
)

// Registry resolves the file reference stored on a row to a URL. Rows only
// keep the reference; where the file lives is decided here.
type Registry struct {
	base *url.URL
}

func NewRegistry(baseURL string) (*Registry, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, err
	}
	return &Registry{base: u}, nil
}

// Resolve returns "" for an empty reference. Absolute references are
// returned as they are.
func (r *Registry) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return u.String()
	}
	return r.base.JoinPath(strings.TrimPrefix(ref, "/")).String()
}
