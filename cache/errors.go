package cache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrInvalidConfig indicates the cache was constructed with a
	// non-positive capacity or default TTL.
	ErrInvalidConfig = errors.New("cache: invalid configuration")

	// ErrEmptyTool indicates a key was requested for an empty tool name.
	ErrEmptyTool = errors.New("cache: tool name is empty")

	// ErrInvalidPolicy indicates a policy file could not be parsed or
	// contained invalid values.
	ErrInvalidPolicy = errors.New("cache: invalid policy")
)
