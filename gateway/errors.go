// Copyright (c) 2025 BVK Chaitanya

package gateway

import (
	"fmt"
	"strings"
)

// VenueError is an error reported by the gateway in its response envelope.
type VenueError struct {
	Message string
	Code    int
	Stack   string
}

func (v *VenueError) Error() string {
	return fmt.Sprintf("venue error %d: %s", v.Code, v.Message)
}

// RetryError holds the errors from every failed attempt of an operation, in
// attempt order.
type RetryError struct {
	Op   string
	Errs []error
}

func (v *RetryError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s failed after %d attempt(s)", v.Op, len(v.Errs))
	for i, err := range v.Errs {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "[%d] %v", i+1, err)
	}
	return sb.String()
}

func (v *RetryError) Unwrap() []error {
	return v.Errs
}
