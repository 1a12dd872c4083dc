package searchservice

import (
	"context"

	"github.com/rrudduck/NuGetGallery/internal/config"
	"github.com/rrudduck/NuGetGallery/internal/domain/gallery"
	"github.com/rrudduck/NuGetGallery/internal/jobs"
)

// The search service owns its index, so the indexing operations below accept
// their input and do nothing.

// UpdateIndex is a no-op.
func (c *Client) UpdateIndex(_ context.Context, _ bool) error { return nil }

// UpdatePackage is a no-op.
func (c *Client) UpdatePackage(_ context.Context, _ gallery.Package) error { return nil }

// RegisterBackgroundJobs adds no jobs and returns list unchanged.
func (c *Client) RegisterBackgroundJobs(list []jobs.Job, _ config.JobsConfig) []jobs.Job {
	return list
}

// IndexPath returns the service URI.
func (c *Client) IndexPath() string { return c.ServiceURI() }

// IsLocal reports false: the index lives in another process.
func (c *Client) IsLocal() bool { return false }
