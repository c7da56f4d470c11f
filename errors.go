package versionrouter

import (
	"errors"

	"github.com/hatsunemiku3939/versionrouter/version"
)

var (
	ErrMalformedVersion   = version.ErrMalformed
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrSchemaViolation    = errors.New("schema violation")
	ErrStore              = errors.New("store")
	ErrPanic              = errors.New("panic")
	ErrMiddleware         = errors.New("middleware")
	ErrNoAdapters         = errors.New("no adapters")
	ErrDuplicateAdapter   = errors.New("duplicate adapter")
)
