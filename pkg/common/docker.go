package common

import "time"

const (
	DefaultDockerBinary = "docker"
	DefaultShell        = "/bin/sh"

	// ContainerListFormat must stay in the field order docker.ParseContainerList expects.
	ContainerListFormat = `{{.ID}}\t{{.Names}}\t{{.Image}}\t{{.Status}}\t{{.Ports}}\t{{.CreatedAt}}\t{{.Command}}`
	ContainerListFields = 7

	ContainerStatsFormat = `table {{.Container}}\t{{.CPUPerc}}\t{{.MemUsage}}\t{{.MemPerc}}\t{{.NetIO}}\t{{.BlockIO}}`

	DaemonVersionFormat = `{{.Server.Version}}`
	ClientVersionFormat = `{{.Client.Version}}`

	// MinimumDockerVersion is docker 18.06, the oldest daemon that supports every flag the builder emits (logs --until).
	MinimumDockerVersion = "18.6.0"
)

const (
	DefaultLogLines = 100
	MaxLogLines     = 10000
	MinLogLines     = 1

	MinExecArgs = 1
	MaxExecArgs = 100
)

const (
	DefaultProbeTimeout   = 10 * time.Second
	DefaultListTimeout    = 30 * time.Second
	DefaultLogsTimeout    = 60 * time.Second
	DefaultInspectTimeout = 30 * time.Second
	DefaultStatsTimeout   = 30 * time.Second
	DefaultExecTimeout    = 5 * time.Minute

	// DefaultWaitDelay bounds how long pipes are drained after the process group is killed.
	DefaultWaitDelay = 2 * time.Second
)
