package metadata

import (
	"fmt"
	"sync"
)

// Table is a map-backed Resolver. It is safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	members map[Token]Member
	strings map[Token]string
	sigs    map[Token]*Signature
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		members: map[Token]Member{},
		strings: map[Token]string{},
		sigs:    map[Token]*Signature{},
	}
}

// Add registers a member under its own token.
func (t *Table) Add(m Member) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sig, ok := m.(*Signature); ok {
		t.sigs[sig.Token] = sig
		return
	}
	t.members[m.MetadataToken()] = m
}

// AddString registers a user string.
func (t *Table) AddString(tok Token, s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.strings[tok] = s
}

// Len returns the number of registered entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.members) + len(t.strings) + len(t.sigs)
}

// ResolveMember returns the member registered for tok.
func (t *Table) ResolveMember(tok Token) (Member, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if m, ok := t.members[tok]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("member %s: %w", tok, ErrNotFound)
}

// ResolveString returns the user string registered for tok.
func (t *Table) ResolveString(tok Token) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.strings[tok]; ok {
		return s, nil
	}
	return "", fmt.Errorf("string %s: %w", tok, ErrNotFound)
}

// ResolveSignature returns the signature registered for tok.
func (t *Table) ResolveSignature(tok Token) (*Signature, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.sigs[tok]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("signature %s: %w", tok, ErrNotFound)
}

// ResolveLocal always fails; use Scope to attach a method context.
func (t *Table) ResolveLocal(index int) (*Local, error) {
	return nil, fmt.Errorf("local %d: %w", index, ErrNoMethodContext)
}

// ResolveParam always fails; use Scope to attach a method context.
func (t *Table) ResolveParam(index int) (*Param, error) {
	return nil, fmt.Errorf("argument %d: %w", index, ErrNoMethodContext)
}
