// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package apperr defines the error taxonomy shared by every ledger, ballot
// and vote operation. Each failure carries a Kind and the key of the
// offending entity so callers can react without parsing messages.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindAuthorization      Kind = "authorization"
	KindNotFound           Kind = "not_found"
	KindInvalidState       Kind = "invalid_state"
	KindTiming             Kind = "timing"
	KindCapacity           Kind = "capacity"
	KindInvariantViolation Kind = "invariant_violation"
	KindSettingDisabled    Kind = "setting_disabled"
	KindAlreadyExists      Kind = "already_exists"
	KindInvalidArgument    Kind = "invalid_argument"
)

// Error is a structured domain failure.
type Error struct {
	Kind    Kind
	Key     string
	Message string
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Key, e.Message)
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: k})
// works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Key == "" || t.Key == e.Key)
}

func newf(kind Kind, key, format string, args ...any) *Error {
	return &Error{Kind: kind, Key: key, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(key, format string, args ...any) error {
	return newf(KindAuthorization, key, format, args...)
}

func NotFound(key, format string, args ...any) error {
	return newf(KindNotFound, key, format, args...)
}

func InvalidState(key, format string, args ...any) error {
	return newf(KindInvalidState, key, format, args...)
}

func Timing(key, format string, args ...any) error {
	return newf(KindTiming, key, format, args...)
}

func Capacity(key, format string, args ...any) error {
	return newf(KindCapacity, key, format, args...)
}

func Invariant(key, format string, args ...any) error {
	return newf(KindInvariantViolation, key, format, args...)
}

func SettingDisabled(key, format string, args ...any) error {
	return newf(KindSettingDisabled, key, format, args...)
}

func AlreadyExists(key, format string, args ...any) error {
	return newf(KindAlreadyExists, key, format, args...)
}

func InvalidArgument(key, format string, args ...any) error {
	return newf(KindInvalidArgument, key, format, args...)
}

// KindOf returns the kind of a domain error, or "" for anything else
// (database failures, encoding errors).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is a domain error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
