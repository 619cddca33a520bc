package metadata

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a token has no entry.
	ErrNotFound = errors.New("not found")

	// ErrNoMethodContext is returned when a local or parameter is resolved
	// without a method scope.
	ErrNoMethodContext = errors.New("no method context")
)

// Resolver resolves the metadata references embedded in CIL operands.
//
// A method may return (nil, nil) to signal that a reference is unresolved
// without a specific cause. Implementations used from concurrent decodes
// must be safe for concurrent use.
type Resolver interface {
	ResolveMember(tok Token) (Member, error)
	ResolveString(tok Token) (string, error)
	ResolveSignature(tok Token) (*Signature, error)
	ResolveLocal(index int) (*Local, error)
	ResolveParam(index int) (*Param, error)
}

// Scope returns a resolver that resolves locals and parameters against
// the given method and locals, and everything else through r.
func Scope(r Resolver, m *Method, locals []*Local) Resolver {
	return &scoped{Resolver: r, method: m, locals: locals}
}

type scoped struct {
	Resolver
	method *Method
	locals []*Local
}

func (s *scoped) ResolveLocal(index int) (*Local, error) {
	if index < 0 || index >= len(s.locals) {
		return nil, fmt.Errorf("local %d: %w", index, ErrNotFound)
	}
	return s.locals[index], nil
}

func (s *scoped) ResolveParam(index int) (*Param, error) {
	if s.method == nil {
		return nil, fmt.Errorf("argument %d: %w", index, ErrNoMethodContext)
	}
	return s.method.Arg(index)
}
