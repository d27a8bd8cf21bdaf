package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/dockmcp/pkg/connector"
	"github.com/mensylisir/dockmcp/pkg/errors/classify"
	"github.com/mensylisir/dockmcp/pkg/logger"
	"github.com/mensylisir/dockmcp/pkg/util/validation"
)

func newTestRunner(conn connector.Connector) *Runner {
	return New(conn, Options{Logger: logger.Nop()})
}

func intPtr(i int) *int { return &i }

func TestRunner_List(t *testing.T) {
	fd := newFakeDocker()
	mc := fd.connector()
	r := newTestRunner(mc)

	res, err := r.List(context.Background(), ListInput{})
	require.NoError(t, err)
	require.Len(t, res.Containers, 2)
	assert.Equal(t, "web", res.Containers[0].Name)
	assert.Equal(t, "nginx -g daemon off;", res.Containers[0].Command)

	res, err = r.List(context.Background(), ListInput{All: true})
	require.NoError(t, err)
	assert.Len(t, res.Containers, 3)
	assert.True(t, res.All)

	hist := mc.history()
	assert.True(t, strings.HasPrefix(hist[0], "'docker' version"), "probe must run first: %v", hist)
}

func TestRunner_DaemonUnavailableShortCircuits(t *testing.T) {
	down := reply{
		stderr: "Cannot connect to the Docker daemon at unix:///var/run/docker.sock. Is the docker daemon running?\n",
		err:    &connector.CommandError{Cmd: "docker version", ExitCode: 1, Stderr: "Cannot connect to the Docker daemon at unix:///var/run/docker.sock. Is the docker daemon running?\n"},
	}

	requests := []Request{
		ListInput{All: true},
		LogsInput{Container: "web"},
		InspectInput{Container: "web"},
		StatsInput{Container: "web"},
		ExecInput{Container: "web", Command: []string{"ls"}},
	}
	for _, req := range requests {
		t.Run(string(req.Operation()), func(t *testing.T) {
			fd := newFakeDocker()
			fd.version = down
			mc := fd.connector()

			res, err := newTestRunner(mc).Do(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, classify.DaemonUnavailable, classify.KindOf(err))
			assert.Len(t, mc.history(), 1, "nothing may run after a failed probe")
			assert.False(t, mc.called("ps"))
		})
	}
}

func TestRunner_ProbeFailures(t *testing.T) {
	t.Run("missing binary", func(t *testing.T) {
		fd := newFakeDocker()
		fd.version = reply{err: &connector.CommandError{Cmd: "'docker' version", ExitCode: 127, Stderr: "/bin/sh: 1: docker: not found"}}
		_, err := newTestRunner(fd.connector()).Probe(context.Background())
		assert.Equal(t, classify.RuntimeNotInstalled, classify.KindOf(err))
	})

	t.Run("timeout becomes daemon unavailable", func(t *testing.T) {
		fd := newFakeDocker()
		fd.version = reply{err: &connector.CommandError{Cmd: "'docker' version", ExitCode: -1, Underlying: fmt.Errorf("timed out after 10s: %w", context.DeadlineExceeded)}}
		_, err := newTestRunner(fd.connector()).Probe(context.Background())
		assert.Equal(t, classify.DaemonUnavailable, classify.KindOf(err))
		assert.Contains(t, err.Error(), "timed out")
	})

	t.Run("unrecognized failure becomes daemon unavailable", func(t *testing.T) {
		fd := newFakeDocker()
		fd.version = reply{err: &connector.CommandError{Cmd: "'docker' version", ExitCode: 1, Stderr: "template parsing error"}}
		_, err := newTestRunner(fd.connector()).Probe(context.Background())
		assert.Equal(t, classify.DaemonUnavailable, classify.KindOf(err))
	})

	t.Run("empty version", func(t *testing.T) {
		fd := newFakeDocker()
		fd.version = reply{stdout: "\n"}
		_, err := newTestRunner(fd.connector()).Probe(context.Background())
		assert.Equal(t, classify.DaemonUnavailable, classify.KindOf(err))
	})

	t.Run("parsed version", func(t *testing.T) {
		dv, err := newTestRunner(newFakeDocker().connector()).Probe(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "24.0.7", dv.Raw)
		require.NotNil(t, dv.Version)
		assert.Equal(t, uint64(24), dv.Version.Major())
	})
}

func TestRunner_ValidationRunsFirst(t *testing.T) {
	mc := newFakeDocker().connector()
	r := newTestRunner(mc)

	_, err := r.Exec(context.Background(), ExecInput{
		Container:  "bad name!",
		Command:    []string{"ls", ""},
		WorkingDir: "relative",
		Env:        []string{"1BAD=x"},
		User:       "root:",
	})
	require.Error(t, err)

	var ce *classify.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, classify.InvalidArgument, ce.Kind)
	paths := make([]string, 0, len(ce.Fields))
	for _, f := range ce.Fields {
		paths = append(paths, f.Path)
	}
	assert.ElementsMatch(t, []string{"container", "command[1]", "workingDir", "env[0]", "user"}, paths)
	assert.Empty(t, mc.history(), "validation failures must not spawn anything")
}

func TestValidateDecoded(t *testing.T) {
	fieldPaths := func(err error) []string {
		var ce *classify.Error
		require.True(t, errors.As(err, &ce))
		paths := make([]string, 0, len(ce.Fields))
		for _, f := range ce.Fields {
			paths = append(paths, f.Path)
		}
		return paths
	}

	t.Run("decode and format errors together", func(t *testing.T) {
		decodeErrs := &validation.ValidationErrors{}
		decodeErrs.AddError("lines", "must be an integer, got string")
		err := ValidateDecoded(LogsInput{Container: "bad id!", Since: "yesterday"}, decodeErrs)
		require.Error(t, err)
		assert.Equal(t, classify.InvalidArgument, classify.KindOf(err))
		assert.Equal(t, []string{"lines", "container", "since"}, fieldPaths(err))
	})

	t.Run("field that failed decoding is reported once", func(t *testing.T) {
		decodeErrs := &validation.ValidationErrors{}
		decodeErrs.AddError("container", "must be a string, got number")
		decodeErrs.AddError("command[0]", "must be a string, got number")
		err := ValidateDecoded(ExecInput{}, decodeErrs)
		assert.Equal(t, []string{"container", "command[0]"}, fieldPaths(err))
		assert.NotContains(t, err.Error(), "identifier is required")
	})

	t.Run("decode errors alone", func(t *testing.T) {
		decodeErrs := &validation.ValidationErrors{}
		decodeErrs.AddError("timestamps", "must be a boolean, got string")
		err := ValidateDecoded(LogsInput{Container: "web"}, decodeErrs)
		assert.Equal(t, []string{"timestamps"}, fieldPaths(err))
	})

	t.Run("clean", func(t *testing.T) {
		assert.NoError(t, ValidateDecoded(LogsInput{Container: "web"}, &validation.ValidationErrors{}))
		assert.NoError(t, ValidateDecoded(ListInput{}, nil))
	})
}

func TestRunner_LogLinesRange(t *testing.T) {
	for _, lines := range []int{0, -1, 10001} {
		mc := newFakeDocker().connector()
		_, err := newTestRunner(mc).Logs(context.Background(), LogsInput{Container: "web", Lines: intPtr(lines)})
		require.Error(t, err, "lines=%d", lines)
		assert.Equal(t, classify.InvalidArgument, classify.KindOf(err))
		assert.Contains(t, err.Error(), "lines:")
		assert.Empty(t, mc.history())
	}
}

func TestRunner_LogTimestampsAreNotTrimmed(t *testing.T) {
	for _, in := range []LogsInput{
		{Container: "web", Since: " 2024-01-01"},
		{Container: "web", Until: "10m "},
	} {
		mc := newFakeDocker().connector()
		_, err := newTestRunner(mc).Logs(context.Background(), in)
		require.Error(t, err)
		assert.Equal(t, classify.InvalidArgument, classify.KindOf(err))
		assert.Empty(t, mc.history())
	}
}

func TestRunner_Logs(t *testing.T) {
	t.Run("empty stderr", func(t *testing.T) {
		fd := newFakeDocker()
		fd.subcommand["logs"] = reply{stdout: "line1\nline2\n"}
		mc := fd.connector()

		res, err := newTestRunner(mc).Logs(context.Background(), LogsInput{Container: "web"})
		require.NoError(t, err)
		assert.Equal(t, "line1\nline2\n", res.Logs)
		assert.Equal(t, "aaa111", res.Container.ID)

		hist := mc.history()
		assert.Equal(t, "'docker' logs --tail 100 'aaa111'", hist[len(hist)-1])
		assert.True(t, mc.called("ps"))
		assert.Contains(t, hist[1], "--all", "logs resolves against stopped containers too")
	})

	t.Run("both channels", func(t *testing.T) {
		fd := newFakeDocker()
		fd.subcommand["logs"] = reply{stdout: "out\n", stderr: "err\n"}
		res, err := newTestRunner(fd.connector()).Logs(context.Background(), LogsInput{Container: "old", Lines: intPtr(5), Since: "10m", Timestamps: true})
		require.NoError(t, err)
		assert.Equal(t, "out\n\nerr\n", res.Logs)
		assert.Equal(t, "ccc333", res.Container.ID)
	})

	t.Run("flags", func(t *testing.T) {
		fd := newFakeDocker()
		mc := fd.connector()
		_, err := newTestRunner(mc).Logs(context.Background(), LogsInput{Container: "bbb", Lines: intPtr(5), Since: "10m", Until: "2024-01-01", Timestamps: true})
		require.NoError(t, err)
		hist := mc.history()
		assert.Equal(t, "'docker' logs --tail 5 --since '10m' --until '2024-01-01' --timestamps 'bbb222'", hist[len(hist)-1])
	})
}

func TestRunner_Inspect(t *testing.T) {
	fd := newFakeDocker()
	fd.subcommand["inspect"] = reply{stdout: `[{"Id":"ccc333","Name":"/old","State":{"Status":"exited"}}]`}
	res, err := newTestRunner(fd.connector()).Inspect(context.Background(), InspectInput{Container: "/old"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Id":"ccc333","Name":"/old","State":{"Status":"exited"}}`, string(res.Document))

	fd.subcommand["inspect"] = reply{stdout: "[]"}
	_, err = newTestRunner(fd.connector()).Inspect(context.Background(), InspectInput{Container: "old"})
	assert.Equal(t, classify.Unclassified, classify.KindOf(err))

	fd.subcommand["inspect"] = reply{err: &connector.CommandError{Cmd: "docker inspect", ExitCode: 1, Stderr: "Error: No such object: ccc333"}}
	_, err = newTestRunner(fd.connector()).Inspect(context.Background(), InspectInput{Container: "old"})
	assert.Equal(t, classify.Unclassified, classify.KindOf(err))
	assert.Contains(t, err.Error(), "No such object")
}

func TestRunner_StatsRunningOnly(t *testing.T) {
	fd := newFakeDocker()
	mc := fd.connector()
	_, err := newTestRunner(mc).Stats(context.Background(), StatsInput{Container: "old"})
	require.Error(t, err)
	assert.Equal(t, classify.ContainerNotFound, classify.KindOf(err))
	assert.Contains(t, err.Error(), "only running containers")
	assert.False(t, mc.called("stats"))
	for _, c := range mc.history() {
		assert.NotContains(t, c, "--all")
	}

	table := "CONTAINER   CPU %   MEM USAGE / LIMIT   MEM %   NET I/O   BLOCK I/O\naaa111   0.00%   1MiB / 2GiB   0.05%   1kB / 0B   0B / 0B\n"
	fd.subcommand["stats"] = reply{stdout: table}
	res, err := newTestRunner(fd.connector()).Stats(context.Background(), StatsInput{Container: "web"})
	require.NoError(t, err)
	assert.Equal(t, table, res.Table)
}

func TestRunner_Exec(t *testing.T) {
	t.Run("non-zero exit is a result", func(t *testing.T) {
		fd := newFakeDocker()
		fd.subcommand["exec"] = reply{
			stdout: "partial\n",
			stderr: "boom\n",
			err:    &connector.CommandError{Cmd: "docker exec", ExitCode: 7, Stdout: "partial\n", Stderr: "boom\n"},
		}
		mc := fd.connector()
		res, err := newTestRunner(mc).Exec(context.Background(), ExecInput{Container: "web", Command: []string{"sh", "-c", "exit 7"}})
		require.NoError(t, err)
		assert.Equal(t, 7, res.ExitCode)
		assert.Equal(t, "partial\n", res.Stdout)
		assert.Equal(t, "boom\n", res.Stderr)

		hist := mc.history()
		assert.Equal(t, "'docker' exec 'aaa111' 'sh' '-c' 'exit 7'", hist[len(hist)-1])
	})

	t.Run("success", func(t *testing.T) {
		fd := newFakeDocker()
		fd.subcommand["exec"] = reply{stdout: "hi\n"}
		res, err := newTestRunner(fd.connector()).Exec(context.Background(), ExecInput{Container: "api", Command: []string{"echo", "hi"}})
		require.NoError(t, err)
		assert.Equal(t, 0, res.ExitCode)
		assert.Equal(t, "hi\n", res.Stdout)
		assert.Equal(t, "bbb222", res.Container.ID)
	})

	t.Run("daemon error is classified", func(t *testing.T) {
		fd := newFakeDocker()
		stderr := "Error response from daemon: Container aaa111 is not running\n"
		fd.subcommand["exec"] = reply{stderr: stderr, err: &connector.CommandError{Cmd: "docker exec", ExitCode: 1, Stderr: stderr}}
		_, err := newTestRunner(fd.connector()).Exec(context.Background(), ExecInput{Container: "web", Command: []string{"ls"}})
		assert.Equal(t, classify.ContainerNotRunning, classify.KindOf(err))
	})

	t.Run("timeout is an error", func(t *testing.T) {
		fd := newFakeDocker()
		fd.subcommand["exec"] = reply{err: &connector.CommandError{Cmd: "docker exec", ExitCode: -1, Underlying: fmt.Errorf("timed out after 5m0s: %w", context.DeadlineExceeded)}}
		_, err := newTestRunner(fd.connector()).Exec(context.Background(), ExecInput{Container: "web", Command: []string{"sleep", "1000"}})
		var ce *classify.Error
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, classify.CodeTimeout, ce.Code)
	})

	t.Run("stopped container is not searched", func(t *testing.T) {
		mc := newFakeDocker().connector()
		_, err := newTestRunner(mc).Exec(context.Background(), ExecInput{Container: "ccc", Command: []string{"ls"}})
		assert.Equal(t, classify.ContainerNotFound, classify.KindOf(err))
		assert.Contains(t, err.Error(), "only running containers")
		assert.False(t, mc.called("exec"))
	})
}

func TestRunner_Timeouts(t *testing.T) {
	mc := newFakeDocker().connector()
	r := New(mc, Options{Logger: logger.Nop(), Timeouts: Timeouts{Exec: time.Second}})

	_, err := r.Exec(context.Background(), ExecInput{Container: "web", Command: []string{"true"}})
	require.NoError(t, err)
	assert.Equal(t, time.Second, mc.LastOptions.Timeout)
	assert.Equal(t, DefaultTimeouts().List, r.timeouts.List)
	assert.Equal(t, time.Second, r.timeouts.For(OpExec))
}

func TestRunner_Info(t *testing.T) {
	t.Run("supported", func(t *testing.T) {
		fd := newFakeDocker()
		mc := &MockConnector{ExecFunc: func(ctx context.Context, cmd string, _ *connector.ExecOptions) ([]byte, []byte, error) {
			if strings.Contains(cmd, "Client") {
				return []byte("25.0.1\n"), nil, nil
			}
			return fd.connector().ExecFunc(ctx, cmd, nil)
		}}
		info, err := newTestRunner(mc).Info(context.Background())
		require.NoError(t, err)
		assert.True(t, info.Reachable)
		assert.True(t, info.Supported)
		assert.Equal(t, "25.0.1", info.ClientVersion)
		assert.Equal(t, "24.0.7", info.ServerVersion)
		assert.Equal(t, "docker", info.Binary)
	})

	t.Run("too old", func(t *testing.T) {
		fd := newFakeDocker()
		fd.version = reply{stdout: "17.3.2\n"}
		info, err := newTestRunner(fd.connector()).Info(context.Background())
		require.NoError(t, err)
		assert.True(t, info.Reachable)
		assert.False(t, info.Supported)
		assert.Contains(t, info.Problem, "older than")
	})

	t.Run("docker ce suffix", func(t *testing.T) {
		for _, v := range []string{"18.09.1-ce", "18.06.0-ce"} {
			fd := newFakeDocker()
			fd.version = reply{stdout: v + "\n"}
			info, err := newTestRunner(fd.connector()).Info(context.Background())
			require.NoError(t, err)
			assert.True(t, info.Supported, "version %s", v)
			assert.Empty(t, info.Problem)
			assert.Equal(t, v, info.ServerVersion)
		}

		fd := newFakeDocker()
		fd.version = reply{stdout: "17.12.1-ce\n"}
		info, err := newTestRunner(fd.connector()).Info(context.Background())
		require.NoError(t, err)
		assert.False(t, info.Supported)
	})

	t.Run("unreachable", func(t *testing.T) {
		fd := newFakeDocker()
		fd.version = reply{err: &connector.CommandError{Cmd: "docker version", ExitCode: 1, Stderr: "Cannot connect to the Docker daemon"}}
		info, err := newTestRunner(fd.connector()).Info(context.Background())
		require.Error(t, err)
		require.NotNil(t, info)
		assert.False(t, info.Reachable)
		assert.NotEmpty(t, info.Problem)
	})
}

func TestRunner_Do(t *testing.T) {
	fd := newFakeDocker()
	fd.subcommand["inspect"] = reply{stdout: `[{"Id":"aaa111"}]`}
	fd.subcommand["stats"] = reply{stdout: "table"}
	fd.subcommand["logs"] = reply{stdout: "log"}
	fd.subcommand["exec"] = reply{stdout: "x"}
	r := newTestRunner(fd.connector())

	for _, req := range []Request{
		ListInput{},
		LogsInput{Container: "web"},
		InspectInput{Container: "web"},
		StatsInput{Container: "web"},
		ExecInput{Container: "web", Command: []string{"id"}},
	} {
		res, err := r.Do(context.Background(), req)
		require.NoError(t, err, req.Operation())
		assert.Equal(t, req.Operation(), res.Operation())

		switch res.(type) {
		case *ListResult, *LogsResult, *InspectResult, *StatsResult, *ExecResult:
		default:
			t.Fatalf("unexpected result type %T", res)
		}
	}

	res, err := r.Do(context.Background(), InspectInput{Container: "nope"})
	assert.Nil(t, res)
	assert.Equal(t, classify.ContainerNotFound, classify.KindOf(err))
	assert.Len(t, Operations(), 5)
}
