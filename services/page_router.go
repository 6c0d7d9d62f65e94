package services

import (
	"strings"

	"liff-gateway/models"
)

type PageRouter struct {
	pages models.PageMap
}

// NewPageRouter copies the mapping with lower-cased keys.
func NewPageRouter(pages map[string]string) *PageRouter {
	normalized := make(models.PageMap, len(pages))
	for k, v := range pages {
		normalized[strings.ToLower(k)] = v
	}
	return &PageRouter{pages: normalized}
}

// Resolve returns the destination path for pageKey, or ErrPageNotFound for
// an empty or unknown key.
func (p *PageRouter) Resolve(pageKey string) (string, error) {
	path, ok := p.pages.Lookup(pageKey)
	if !ok {
		return "", ErrPageNotFound
	}
	return path, nil
}

func (p *PageRouter) Pages() models.PageMap {
	return p.pages
}
