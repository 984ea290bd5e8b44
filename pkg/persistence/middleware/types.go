// Package middleware wraps a ports.RecoveryCache to change what detached
// fields leave behind: encrypted records, or records without sensitive values.
package middleware

import "github.com/aretw0/formwork/pkg/ports"

// Middleware allows wrapping a RecoveryCache to add behavior.
type Middleware func(ports.RecoveryCache) ports.RecoveryCache

// Chain applies mws to cache. The first middleware is the outermost one.
func Chain(cache ports.RecoveryCache, mws ...Middleware) ports.RecoveryCache {
	for i := len(mws) - 1; i >= 0; i-- {
		cache = mws[i](cache)
	}
	return cache
}
