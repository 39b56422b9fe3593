package task

import "errors"

var (
	ErrTitleRequired = errors.New("task title is required")
	ErrStoreNotReady = errors.New("store did not become reachable")
)
