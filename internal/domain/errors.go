package domain

import "fmt"

// AuthError reports a failed sign-in, registration or token check.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth %s: %v", e.Op, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports that the initial load of an inventory failed.
type FetchError struct {
	UserID string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch inventory for user %s: %v", e.UserID, e.Err)
}
func (e *FetchError) Unwrap() error { return e.Err }

// SyncError reports that a batched write failed. The remote store rolled the
// batch back and the local snapshots are untouched.
type SyncError struct {
	UserID string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("failed to sync inventory for user %s: %v", e.UserID, e.Err)
}
func (e *SyncError) Unwrap() error { return e.Err }

// ServiceError reports a failed call to an external model service
// (classification or recipe suggestion).
type ServiceError struct {
	Service string
	Err     error
}

func (e *ServiceError) Error() string { return fmt.Sprintf("%s service: %v", e.Service, e.Err) }
func (e *ServiceError) Unwrap() error { return e.Err }
