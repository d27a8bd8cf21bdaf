package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/connector"
	"github.com/mensylisir/dockmcp/pkg/docker"
	"github.com/mensylisir/dockmcp/pkg/errors/classify"
	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/resolver"
)

// Timeouts bounds each docker invocation. The caller's context deadline still wins when it is sooner.
type Timeouts struct {
	Probe   time.Duration
	List    time.Duration
	Logs    time.Duration
	Inspect time.Duration
	Stats   time.Duration
	Exec    time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Probe:   common.DefaultProbeTimeout,
		List:    common.DefaultListTimeout,
		Logs:    common.DefaultLogsTimeout,
		Inspect: common.DefaultInspectTimeout,
		Stats:   common.DefaultStatsTimeout,
		Exec:    common.DefaultExecTimeout,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	d := DefaultTimeouts()
	if t.Probe <= 0 {
		t.Probe = d.Probe
	}
	if t.List <= 0 {
		t.List = d.List
	}
	if t.Logs <= 0 {
		t.Logs = d.Logs
	}
	if t.Inspect <= 0 {
		t.Inspect = d.Inspect
	}
	if t.Stats <= 0 {
		t.Stats = d.Stats
	}
	if t.Exec <= 0 {
		t.Exec = d.Exec
	}
	return t
}

func (t Timeouts) For(op Operation) time.Duration {
	switch op {
	case OpList:
		return t.List
	case OpLogs:
		return t.Logs
	case OpInspect:
		return t.Inspect
	case OpStats:
		return t.Stats
	case OpExec:
		return t.Exec
	default:
		return t.Probe
	}
}

type Options struct {
	// Binary is the docker CLI to run, common.DefaultDockerBinary when empty.
	Binary   string
	Timeouts Timeouts
	Logger   *logger.Logger
}

// Runner is the operation facade. Every call validates its input, probes the daemon,
// resolves the target container against a fresh listing, runs one docker command and
// returns a typed result or a *classify.Error. It holds no per-call state.
type Runner struct {
	conn     connector.Connector
	builder  *docker.Builder
	binary   string
	timeouts Timeouts
	log      *logger.Logger
}

func New(conn connector.Connector, opts Options) *Runner {
	binary := opts.Binary
	if binary == "" {
		binary = common.DefaultDockerBinary
	}
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}
	return &Runner{
		conn:     conn,
		builder:  docker.NewBuilder(binary),
		binary:   binary,
		timeouts: opts.Timeouts.withDefaults(),
		log:      log.With("component", "runner"),
	}
}

// exec runs one command line. Failures are returned unclassified.
func (r *Runner) exec(ctx context.Context, op Operation, cmd string, timeout time.Duration) (string, string, error) {
	start := time.Now()
	stdout, stderr, err := r.conn.Exec(ctx, cmd, &connector.ExecOptions{Timeout: timeout})
	log := r.log.With("operation", string(op), "took", time.Since(start).Round(time.Millisecond))
	if err != nil {
		log.Debugf("command failed: %s: %v", cmd, err)
	} else {
		log.Debugf("command succeeded: %s", cmd)
	}
	return string(stdout), string(stderr), err
}

// fail classifies err and logs it once.
func (r *Runner) fail(op Operation, err error) error {
	c := classify.Classify(err)
	r.log.With("operation", string(op), "kind", string(c.Kind)).Warnf("%s failed: %s", op, c.Message)
	return c
}

// Probe checks that the docker CLI can reach the daemon.
func (r *Runner) Probe(ctx context.Context) (*DaemonVersion, error) {
	stdout, _, err := r.exec(ctx, "probe", r.builder.Version(), r.timeouts.Probe)
	if err != nil {
		return nil, probeError(err)
	}
	raw := strings.TrimSpace(stdout)
	if raw == "" {
		return nil, classify.New(classify.DaemonUnavailable, "Docker daemon is not accessible: docker version reported no server version")
	}
	dv := &DaemonVersion{Raw: raw}
	if v, perr := semver.NewVersion(raw); perr == nil {
		dv.Version = v
	}
	return dv, nil
}

// probeError reduces any probe failure to DaemonUnavailable, unless the CLI itself is
// missing or the caller gave up.
func probeError(err error) *classify.Error {
	c := classify.Classify(err)
	switch {
	case c.Kind == classify.RuntimeNotInstalled:
		return c
	case c.Code == classify.CodeCanceled:
		return c
	case c.Kind == classify.DaemonUnavailable:
		return c
	default:
		detail := c.Message
		if c.Code == classify.CodeTimeout {
			detail = "the version probe timed out"
		}
		return &classify.Error{
			Kind:    classify.DaemonUnavailable,
			Message: fmt.Sprintf("Docker daemon is not accessible: %s. Make sure Docker is running and the current user may access the Docker socket", detail),
			Err:     err,
		}
	}
}

// Info gathers client and server versions concurrently and checks the server against
// common.MinimumDockerVersion. The returned error is the probe failure, if any; info is
// filled in either way.
func (r *Runner) Info(ctx context.Context) (*DaemonInfo, error) {
	info := &DaemonInfo{Binary: r.binary, MinimumVersion: common.MinimumDockerVersion}

	var server *DaemonVersion
	var g errgroup.Group
	g.Go(func() error {
		stdout, _, err := r.exec(ctx, "probe", r.builder.ClientVersion(), r.timeouts.Probe)
		// docker version exits non-zero without a daemon but still prints the client part.
		info.ClientVersion = strings.TrimSpace(stdout)
		if err != nil && info.ClientVersion == "" {
			r.log.Debugf("client version unavailable: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		server, err = r.Probe(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		info.Problem = err.Error()
		return info, err
	}

	info.Reachable = true
	info.ServerVersion = server.Raw
	constraint, err := semver.NewConstraint(">= " + common.MinimumDockerVersion)
	if err != nil {
		return info, err
	}
	switch {
	case server.Version == nil:
		info.Problem = fmt.Sprintf("cannot parse server version %q", server.Raw)
	case !constraint.Check(release(server.Version)):
		info.Problem = fmt.Sprintf("server version %s is older than the supported minimum %s", server.Raw, common.MinimumDockerVersion)
	default:
		info.Supported = true
	}
	return info, nil
}

// release drops a suffix like "-ce" so that old Docker CE builds compare as their
// release version. Constraints never match prereleases otherwise.
func release(v *semver.Version) *semver.Version {
	r, err := v.SetPrerelease("")
	if err != nil {
		return v
	}
	return &r
}

func (r *Runner) listRecords(ctx context.Context, op Operation, all bool) ([]docker.ContainerRecord, error) {
	stdout, _, err := r.exec(ctx, op, r.builder.List(all), r.timeouts.List)
	if err != nil {
		return nil, err
	}
	return docker.ParseContainerList(stdout), nil
}

// prepare validates the input, probes the daemon and, for single-container operations,
// resolves the identifier in the given scope.
func (r *Runner) prepare(ctx context.Context, in Request, container string, scope resolver.Scope) (docker.ContainerRecord, error) {
	op := in.Operation()
	if err := in.Validate(); err != nil {
		return docker.ContainerRecord{}, r.fail(op, err)
	}
	if _, err := r.Probe(ctx); err != nil {
		return docker.ContainerRecord{}, r.fail(op, err)
	}
	if op == OpList {
		return docker.ContainerRecord{}, nil
	}
	records, err := r.listRecords(ctx, op, scope.IncludeStopped())
	if err != nil {
		return docker.ContainerRecord{}, r.fail(op, err)
	}
	record, err := resolver.Resolve(records, container, scope)
	if err != nil {
		return docker.ContainerRecord{}, r.fail(op, err)
	}
	return record, nil
}

// List returns running containers, or all containers when in.All is set.
func (r *Runner) List(ctx context.Context, in ListInput) (*ListResult, error) {
	if _, err := r.prepare(ctx, in, "", resolver.ScopeAll); err != nil {
		return nil, err
	}
	records, err := r.listRecords(ctx, OpList, in.All)
	if err != nil {
		return nil, r.fail(OpList, err)
	}
	return &ListResult{All: in.All, Containers: records}, nil
}

// Logs returns stdout followed by stderr of `docker logs`. Stopped containers are searched too.
func (r *Runner) Logs(ctx context.Context, in LogsInput) (*LogsResult, error) {
	record, err := r.prepare(ctx, in, in.Container, resolver.ScopeAll)
	if err != nil {
		return nil, err
	}
	stdout, stderr, err := r.exec(ctx, OpLogs, r.builder.Logs(in.query(record.ID)), r.timeouts.Logs)
	if err != nil {
		return nil, r.fail(OpLogs, err)
	}
	return &LogsResult{Container: record, Logs: docker.CombineLogs(stdout, stderr)}, nil
}

func (r *Runner) Inspect(ctx context.Context, in InspectInput) (*InspectResult, error) {
	record, err := r.prepare(ctx, in, in.Container, resolver.ScopeAll)
	if err != nil {
		return nil, err
	}
	stdout, _, err := r.exec(ctx, OpInspect, r.builder.Inspect(record.ID), r.timeouts.Inspect)
	if err != nil {
		return nil, r.fail(OpInspect, err)
	}
	doc, err := docker.ParseInspect(stdout)
	if err != nil {
		return nil, r.fail(OpInspect, classify.New(classify.Unclassified, err.Error()))
	}
	return &InspectResult{Container: record, Document: doc}, nil
}

// Stats returns one `docker stats --no-stream` table. Only running containers are searched.
func (r *Runner) Stats(ctx context.Context, in StatsInput) (*StatsResult, error) {
	record, err := r.prepare(ctx, in, in.Container, resolver.ScopeRunning)
	if err != nil {
		return nil, err
	}
	stdout, _, err := r.exec(ctx, OpStats, r.builder.Stats(record.ID), r.timeouts.Stats)
	if err != nil {
		return nil, r.fail(OpStats, err)
	}
	return &StatsResult{Container: record, Table: stdout}, nil
}

// Exec runs a command in a running container. The command's exit status is returned in
// the result; only a docker CLI or daemon failure becomes an error.
func (r *Runner) Exec(ctx context.Context, in ExecInput) (*ExecResult, error) {
	record, err := r.prepare(ctx, in, in.Container, resolver.ScopeRunning)
	if err != nil {
		return nil, err
	}
	stdout, stderr, err := r.exec(ctx, OpExec, r.builder.Exec(in.request(record.ID)), r.timeouts.Exec)
	result := &ExecResult{Container: record, ExecResult: docker.ExecResult{Stdout: stdout, Stderr: stderr}}
	if err == nil {
		return result, nil
	}

	var cmdErr *connector.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Exited() && !classify.IsDockerCLIFailure(cmdErr.Stderr) {
		result.ExitCode = cmdErr.ExitCode
		r.log.With("operation", string(OpExec), "exit_code", cmdErr.ExitCode).Debugf("command in %s exited non-zero", record.ShortID())
		return result, nil
	}
	return nil, r.fail(OpExec, err)
}

// Do dispatches req to the matching operation.
func (r *Runner) Do(ctx context.Context, req Request) (Result, error) {
	switch in := req.(type) {
	case ListInput:
		return nilSafe(r.List(ctx, in))
	case LogsInput:
		return nilSafe(r.Logs(ctx, in))
	case InspectInput:
		return nilSafe(r.Inspect(ctx, in))
	case StatsInput:
		return nilSafe(r.Stats(ctx, in))
	case ExecInput:
		return nilSafe(r.Exec(ctx, in))
	default:
		return nil, classify.Newf(classify.InvalidArgument, "unsupported operation %T", req)
	}
}

// nilSafe keeps a nil *XResult from turning into a non-nil Result interface.
func nilSafe[T Result](res T, err error) (Result, error) {
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Binary returns the docker CLI this runner invokes.
func (r *Runner) Binary() string {
	return r.binary
}
