package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure taxonomy. Structured error types below
// match these via errors.Is so callers can branch on the category while
// messages still name the entity and scope involved.
var (
	ErrScopeUnavailable    = errors.New("scope unavailable")
	ErrDuplicateServer     = errors.New("server already exists")
	ErrNotFound            = errors.New("not found")
	ErrFrozenLockfile      = errors.New("frozen lockfile violation")
	ErrIntegrityMismatch   = errors.New("integrity mismatch")
	ErrClientNotDetected   = errors.New("client not detected")
	ErrClientConfigCorrupt = errors.New("client config corrupt")
	ErrRegistryUnavailable = errors.New("registry unavailable")
	ErrLockCollision       = errors.New("file lock collision")
)

// ScopeError reports that a requested scope cannot be resolved.
type ScopeError struct {
	Scope  Scope
	Dir    string
	Reason string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%s scope unavailable in %s: %s", e.Scope, e.Dir, e.Reason)
}

func (e *ScopeError) Is(target error) bool { return target == ErrScopeUnavailable }

// DuplicateError reports an insert that collides with an existing server.
type DuplicateError struct {
	Name  string
	Scope Scope
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("server %q already exists in %s scope", e.Name, e.Scope)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicateServer }

// NotFoundError reports a missing server or group. For groups, EmptyGroup
// distinguishes "group exists but has no members" from "group does not
// exist" so callers can apply different policies.
type NotFoundError struct {
	Kind       string // "server" or "group"
	Name       string
	Scope      Scope
	EmptyGroup bool
}

func (e *NotFoundError) Error() string {
	if e.EmptyGroup {
		return fmt.Sprintf("group %q in %s scope has no members", e.Name, e.Scope)
	}
	return fmt.Sprintf("%s %q not found in %s scope", e.Kind, e.Name, e.Scope)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// FrozenLockfileError reports declared servers without a satisfying lock
// entry during a frozen install.
type FrozenLockfileError struct {
	Missing []string
}

func (e *FrozenLockfileError) Error() string {
	return fmt.Sprintf("lockfile is missing satisfying entries for: %s (run install without --frozen-lockfile to resolve)",
		strings.Join(e.Missing, ", "))
}

func (e *FrozenLockfileError) Is(target error) bool { return target == ErrFrozenLockfile }

// IntegrityError reports a digest that does not byte-match its expected value.
type IntegrityError struct {
	Name string
	Want string
	Got  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity mismatch for %q: lockfile has %s, registry reports %s", e.Name, e.Want, e.Got)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrityMismatch }

// ClientError reports a per-client failure during sync.
type ClientError struct {
	Client string
	Path   string
	Kind   error // ErrClientNotDetected or ErrClientConfigCorrupt
	Err    error
}

func (e *ClientError) Error() string {
	switch {
	case e.Kind == ErrClientNotDetected:
		return fmt.Sprintf("client %s not detected (no config at any known path)", e.Client)
	case e.Err != nil:
		return fmt.Sprintf("client %s config %s: %v", e.Client, e.Path, e.Err)
	default:
		return fmt.Sprintf("client %s config %s unusable", e.Client, e.Path)
	}
}

func (e *ClientError) Is(target error) bool { return target == e.Kind }

func (e *ClientError) Unwrap() error { return e.Err }

// RegistryError reports a registry collaborator failure (timeout, refusal,
// malformed response).
type RegistryError struct {
	Op  string
	Err error
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry %s: %v", e.Op, e.Err)
}

func (e *RegistryError) Is(target error) bool { return target == ErrRegistryUnavailable }

func (e *RegistryError) Unwrap() error { return e.Err }

// LockError reports that the advisory file lock for a scope could not be
// acquired within the deadline.
type LockError struct {
	Path string
}

func (e *LockError) Error() string {
	return fmt.Sprintf("timed out waiting for file lock %s (another cpm process may be running)", e.Path)
}

func (e *LockError) Is(target error) bool { return target == ErrLockCollision }
