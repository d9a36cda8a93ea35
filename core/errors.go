package core

import "errors"

var (
	ErrInvalidLinkKind   = errors.New("invalid link kind")
	ErrEmptyInterface    = errors.New("empty interface name")
	ErrNameTooLong       = errors.New("name component exceeds 255 bytes")
	ErrLinkExists        = errors.New("link already exists")
	ErrLinkNotFound      = errors.New("link not found")
	ErrLinkDestroyed     = errors.New("link has been destroyed")
	ErrEmptyFriendlyName = errors.New("empty friendly name")
	ErrManagerClosed     = errors.New("manager is closed")
	ErrNoTransportDialer = errors.New("no transport dialer configured")
)
