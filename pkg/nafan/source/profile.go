package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nafan/nafan/pkg/nafan/internalerr"
	"github.com/nafan/nafan/pkg/nafan/store"
)

// Harvest profile types.
const (
	TypeFile    = "file"
	TypeDir     = "dir"
	TypeSitemap = "sitemap"
	TypeS3      = "s3"
)

// Profile describes where a repository publishes its finding aids and in
// which format.
type Profile struct {
	Type     string
	Location string     // path, URL or key prefix
	Format   store.Kind // defaults to EAD

	// Since limits sitemap harvests to recently modified entries.
	Since      time.Time
	MaxRetries int
	Timeout    time.Duration
	S3         S3Config
}

// Kind returns the profile's document format.
func (p Profile) Kind() store.Kind {
	if p.Format == "" {
		return store.KindEAD
	}
	return p.Format
}

// FromProfile builds the harvester a profile describes.
func FromProfile(ctx context.Context, p Profile) (Harvester, error) {
	switch strings.ToLower(p.Type) {
	case TypeFile, "":
		if p.Location == "" {
			return nil, fmt.Errorf("file profile without location: %w", internalerr.ErrInvalidConfig)
		}
		return File{Paths: []string{p.Location}}, nil
	case TypeDir:
		if p.Location == "" {
			return nil, fmt.Errorf("dir profile without location: %w", internalerr.ErrInvalidConfig)
		}
		return Directory{Root: p.Location}, nil
	case TypeSitemap:
		if p.Location == "" {
			return nil, fmt.Errorf("sitemap profile without url: %w", internalerr.ErrInvalidConfig)
		}
		h := NewSitemap(p.Location, p.MaxRetries, p.Timeout)
		h.Since = p.Since
		return h, nil
	case TypeS3:
		cfg := p.S3
		if p.Location != "" {
			cfg.Prefix = p.Location
		}
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("profile type %q: %w", p.Type, internalerr.ErrInvalidConfig)
	}
}
