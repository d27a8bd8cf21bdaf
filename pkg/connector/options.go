package connector

import (
	"time"
)

type ExecOptions struct {
	// Timeout bounds the whole call. Zero means the caller's context is the only limit.
	Timeout time.Duration
	// WaitDelay bounds how long output pipes are drained after the process is killed.
	WaitDelay time.Duration
	Env       []string
	Dir       string
	Stdin     []byte
}
