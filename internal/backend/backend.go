// Package backend defines the Gateway capability implemented by each storage
// provider: store a local file remotely and hand back a retrievable locator.
package backend

import "context"

// Locator identifies a stored file on a provider, with at least one
// retrievable URL.
type Locator struct {
	// ID is the provider-specific identifier: a filename for the local
	// backend, a file ID for Drive, a node handle for Mega, an object key
	// for S3.
	ID string
	// URLs are the shareable links for the stored file, never empty on a
	// successful store.
	URLs []string
}

// Status is the result of a liveness probe. Account carries a human-readable
// identity label (an email, bucket, or directory), never credentials.
type Status struct {
	Available bool   `json:"available"`
	Account   string `json:"account,omitempty"`
}

// Gateway is the storage provider capability used by the transfer pipeline.
// Implementations are shared across concurrent transfers; Store must be safe
// for concurrent use, serializing internally when the underlying client is
// not.
type Gateway interface {
	// Name identifies the provider (e.g. "local", "drive", "mega", "s3").
	Name() string
	// Store uploads the file at localPath under displayName and returns its
	// locator. A failure of any internal provider step fails the whole call;
	// no partial result is returned.
	Store(ctx context.Context, localPath, displayName, mimeHint string) (Locator, error)
	// Describe reports availability and account identity. It never panics
	// and never returns an error; unreachable providers report
	// Available=false.
	Describe(ctx context.Context) Status
}

// Initializer is implemented by gateways that authenticate or resolve remote
// resources before serving transfers. Init is called once at startup; a
// failed Init leaves the gateway unavailable for the process lifetime.
type Initializer interface {
	Init(ctx context.Context) error
}
