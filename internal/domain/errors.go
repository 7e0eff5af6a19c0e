package domain

import "errors"

var (
	ErrUnknownReactor    = errors.New("unknown reactor")
	ErrUnknownStation    = errors.New("unknown station")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSlowClient        = errors.New("client send buffer full")
	ErrConnectionClosed  = errors.New("connection closed")
)
