package rpc

import "corelend/pool"

// Registry resolves a pool ID (as it appears in the URL path) to a running
// pool engine. The node's startup code is expected to populate one entry per
// deployed pool; the server itself never constructs a Pool.
type Registry interface {
	Lookup(poolID string) (*pool.Pool, bool)
}

// StaticRegistry is the simplest Registry: a fixed map handed to the server
// at construction, matching the teacher's Config-struct-of-dependencies
// wiring style (services/otc-gateway/server.Config) rather than a
// self-registering singleton.
type StaticRegistry map[string]*pool.Pool

// Lookup implements Registry.
func (r StaticRegistry) Lookup(poolID string) (*pool.Pool, bool) {
	p, ok := r[poolID]
	return p, ok
}
