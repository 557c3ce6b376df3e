package engine

import "errors"

var (
	ErrNoEngine  = errors.New("no container engine found (tried podman, docker)")
	ErrBadEngine = errors.New("container engine binary not usable")
)
