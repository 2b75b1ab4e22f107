// File: internal/postfilter/handle.go
package postfilter

import "fmt"

// ModelHandle is an immutable record binding a resolved, locally cached,
// integrity-verified model to its scoring parameters. Handles are freely
// shareable across goroutines.
type ModelHandle struct {
	Name             string
	Version          string
	Path             string
	Framework        string
	DefaultThreshold float64
	Labels           []string
}

// Descriptor renders the handle as "{name}@{version}" for report metadata.
func (h ModelHandle) Descriptor() string {
	return fmt.Sprintf("%s@%s", h.Name, h.Version)
}
