package runner

import (
	"encoding/json"

	"github.com/Masterminds/semver/v3"

	"github.com/mensylisir/dockmcp/pkg/docker"
)

// Operation names one of the five container operations.
type Operation string

const (
	OpList    Operation = "list"
	OpLogs    Operation = "logs"
	OpInspect Operation = "inspect"
	OpStats   Operation = "stats"
	OpExec    Operation = "exec"
)

// Operations lists every operation in a stable order.
func Operations() []Operation {
	return []Operation{OpList, OpLogs, OpInspect, OpStats, OpExec}
}

// Result is implemented only by the result types of this package, so a type switch over
// *ListResult, *LogsResult, *InspectResult, *StatsResult and *ExecResult is exhaustive.
type Result interface {
	Operation() Operation
	sealed()
}

type ListResult struct {
	All        bool                     `json:"all"`
	Containers []docker.ContainerRecord `json:"containers"`
}

type LogsResult struct {
	Container docker.ContainerRecord `json:"container"`
	Logs      string                 `json:"logs"`
}

type InspectResult struct {
	Container docker.ContainerRecord `json:"container"`
	Document  json.RawMessage        `json:"document"`
}

type StatsResult struct {
	Container docker.ContainerRecord `json:"container"`
	Table     string                 `json:"table"`
}

// ExecResult carries the command's own exit status. ExitCode != 0 is still a success of the call.
type ExecResult struct {
	Container docker.ContainerRecord `json:"container"`
	docker.ExecResult
}

func (*ListResult) Operation() Operation    { return OpList }
func (*LogsResult) Operation() Operation    { return OpLogs }
func (*InspectResult) Operation() Operation { return OpInspect }
func (*StatsResult) Operation() Operation   { return OpStats }
func (*ExecResult) Operation() Operation    { return OpExec }

func (*ListResult) sealed()    {}
func (*LogsResult) sealed()    {}
func (*InspectResult) sealed() {}
func (*StatsResult) sealed()   {}
func (*ExecResult) sealed()    {}

// DaemonVersion is the outcome of a successful probe.
type DaemonVersion struct {
	Raw string `json:"version"`
	// Version is nil when the daemon reports something semver cannot parse.
	Version *semver.Version `json:"-"`
}

// DaemonInfo describes the docker installation as seen by `dockmcp doctor` and /healthz.
type DaemonInfo struct {
	Binary         string `json:"binary"`
	ClientVersion  string `json:"clientVersion,omitempty"`
	ServerVersion  string `json:"serverVersion,omitempty"`
	MinimumVersion string `json:"minimumVersion"`
	Reachable      bool   `json:"reachable"`
	// Supported is false when the server version is older than MinimumVersion or unparseable.
	Supported bool   `json:"supported"`
	Problem   string `json:"problem,omitempty"`
}
