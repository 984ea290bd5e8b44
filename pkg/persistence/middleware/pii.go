package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

type piiMiddleware struct {
	next     ports.RecoveryCache
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that parks fields whose name matches
// one of the patterns without their value, so they come back at their
// initial value.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.RecoveryCache) ports.RecoveryCache {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Put(ctx context.Context, name string, snap domain.Snapshot) error {
	if m.matches(name) {
		snap.Field.Value = nil
		snap.Field.HasValue = false
		snap.Field.Errors = nil
		snap.Field.Dirty = false
	}
	return m.next.Put(ctx, name, snap)
}

func (m *piiMiddleware) Take(ctx context.Context, name string) (domain.Snapshot, error) {
	return m.next.Take(ctx, name)
}

func (m *piiMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *piiMiddleware) Clear(ctx context.Context) error {
	return m.next.Clear(ctx)
}

func (m *piiMiddleware) matches(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}
