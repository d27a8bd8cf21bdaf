package runner

import (
	"context"
	"strings"
	"sync"

	"github.com/mensylisir/dockmcp/pkg/connector"
)

// MockConnector is a func-field fake of connector.Connector.
type MockConnector struct {
	ExecFunc func(ctx context.Context, cmd string, options *connector.ExecOptions) (stdout, stderr []byte, err error)

	mu          sync.Mutex
	ExecHistory []string
	LastOptions *connector.ExecOptions
}

func (m *MockConnector) Exec(ctx context.Context, cmd string, options *connector.ExecOptions) ([]byte, []byte, error) {
	m.mu.Lock()
	m.ExecHistory = append(m.ExecHistory, cmd)
	m.LastOptions = options
	m.mu.Unlock()
	if m.ExecFunc == nil {
		return nil, nil, nil
	}
	return m.ExecFunc(ctx, cmd, options)
}

func (m *MockConnector) history() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ExecHistory...)
}

// called reports whether any recorded command contains the docker subcommand sub.
func (m *MockConnector) called(sub string) bool {
	for _, c := range m.history() {
		if strings.Contains(c, "'docker' "+sub+" ") {
			return true
		}
	}
	return false
}

type reply struct {
	stdout string
	stderr string
	err    error
}

// fakeDocker answers each docker subcommand with a fixed reply. ps answers depend on --all.
type fakeDocker struct {
	version    reply
	psRunning  reply
	psAll      reply
	subcommand map[string]reply
}

func newFakeDocker() *fakeDocker {
	return &fakeDocker{
		version: reply{stdout: "24.0.7\n"},
		psRunning: reply{stdout: "aaa111\tweb\tnginx\tUp 2 hours\t80/tcp\t2024-01-01\tnginx -g daemon off;\n" +
			"bbb222\tapi\tgo-api:1\tUp 5 minutes\t\t2024-01-02\t/app\n"},
		psAll: reply{stdout: "aaa111\tweb\tnginx\tUp 2 hours\t80/tcp\t2024-01-01\tnginx -g daemon off;\n" +
			"bbb222\tapi\tgo-api:1\tUp 5 minutes\t\t2024-01-02\t/app\n" +
			"ccc333\told\tbusybox\tExited (0) 2 days ago\t\t2023-12-01\tsh\n"},
		subcommand: map[string]reply{},
	}
}

func (f *fakeDocker) connector() *MockConnector {
	return &MockConnector{ExecFunc: func(ctx context.Context, cmd string, _ *connector.ExecOptions) ([]byte, []byte, error) {
		var r reply
		switch {
		case strings.HasPrefix(cmd, "'docker' version"):
			r = f.version
		case strings.HasPrefix(cmd, "'docker' ps --all"):
			r = f.psAll
		case strings.HasPrefix(cmd, "'docker' ps"):
			r = f.psRunning
		default:
			fields := strings.Fields(cmd)
			if len(fields) > 1 {
				r = f.subcommand[fields[1]]
			}
		}
		return []byte(r.stdout), []byte(r.stderr), r.err
	}}
}
