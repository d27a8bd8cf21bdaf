package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/errors/classify"
	"github.com/mensylisir/dockmcp/pkg/runner"
	"github.com/mensylisir/dockmcp/pkg/util/validation"
)

const (
	ToolListContainers   = "docker_list_containers"
	ToolContainerLogs    = "docker_container_logs"
	ToolInspectContainer = "docker_inspect_container"
	ToolContainerStats   = "docker_container_stats"
	ToolExec             = "docker_exec"
)

type toolDef struct {
	Tool
	// decode turns raw arguments into a request; type errors land in d.errs.
	decode func(d *argDecoder) runner.Request
}

func containerProperty(desc string) map[string]any {
	return map[string]any{
		"type":        "string",
		"minLength":   1,
		"pattern":     validation.ContainerIdentifierPattern,
		"description": desc,
	}
}

func timeProperty(desc string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": desc + ". Either a relative duration such as 10m, 2h or 1d, or an absolute timestamp such as 2024-01-01T00:00:00Z",
	}
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func toolDefs() []*toolDef {
	return []*toolDef{
		{
			Tool: Tool{
				Name:        ToolListContainers,
				Description: "List Docker containers with their ID, name, image, status, ports, creation time and command.",
				InputSchema: objectSchema(map[string]any{
					"all": map[string]any{"type": "boolean", "default": false, "description": "Include stopped containers"},
				}),
			},
			decode: func(d *argDecoder) runner.Request {
				return runner.ListInput{All: d.Bool("all")}
			},
		},
		{
			Tool: Tool{
				Name:        ToolContainerLogs,
				Description: "Fetch the logs of a container, running or stopped.",
				InputSchema: objectSchema(map[string]any{
					"container": containerProperty("Container name, ID or ID prefix"),
					"lines": map[string]any{
						"type":        "integer",
						"minimum":     common.MinLogLines,
						"maximum":     common.MaxLogLines,
						"default":     common.DefaultLogLines,
						"description": "Number of lines to show from the end of the logs",
					},
					"since":      timeProperty("Show logs since this time"),
					"until":      timeProperty("Show logs before this time"),
					"timestamps": map[string]any{"type": "boolean", "default": false, "description": "Prefix every line with its timestamp"},
				}, "container"),
			},
			decode: func(d *argDecoder) runner.Request {
				return runner.LogsInput{
					Container:  d.String("container", true),
					Lines:      d.Int("lines"),
					Since:      d.String("since", false),
					Until:      d.String("until", false),
					Timestamps: d.Bool("timestamps"),
				}
			},
		},
		{
			Tool: Tool{
				Name:        ToolInspectContainer,
				Description: "Return the full docker inspect JSON document of a container, running or stopped.",
				InputSchema: objectSchema(map[string]any{
					"container": containerProperty("Container name, ID or ID prefix"),
				}, "container"),
			},
			decode: func(d *argDecoder) runner.Request {
				return runner.InspectInput{Container: d.String("container", true)}
			},
		},
		{
			Tool: Tool{
				Name:        ToolContainerStats,
				Description: "Show a one-shot CPU, memory, network and block I/O snapshot of a running container.",
				InputSchema: objectSchema(map[string]any{
					"container": containerProperty("Name, ID or ID prefix of a running container"),
				}, "container"),
			},
			decode: func(d *argDecoder) runner.Request {
				return runner.StatsInput{Container: d.String("container", true)}
			},
		},
		{
			Tool: Tool{
				Name: ToolExec,
				Description: "Execute a command inside a running container. A non-zero exit code is reported " +
					"in the result and is not an error.",
				InputSchema: objectSchema(map[string]any{
					"container": containerProperty("Name, ID or ID prefix of a running container"),
					"command": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string", "minLength": 1},
						"minItems":    common.MinExecArgs,
						"maxItems":    common.MaxExecArgs,
						"description": "Command and arguments, one element per argument; no shell is involved unless you call one",
					},
					"workingDir": map[string]any{"type": "string", "pattern": validation.WorkingDirPattern, "description": "Absolute working directory inside the container"},
					"env": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string", "pattern": validation.EnvVarPattern},
						"description": "Environment variables as KEY=VALUE",
					},
					"user":        map[string]any{"type": "string", "pattern": validation.UserSpecPattern, "description": "user[:group] or uid[:gid]"},
					"privileged":  map[string]any{"type": "boolean", "default": false, "description": "Give extended privileges to the command"},
					"interactive": map[string]any{"type": "boolean", "default": false, "description": "Allocate a TTY and keep stdin open (docker exec -it)"},
				}, "container", "command"),
			},
			decode: func(d *argDecoder) runner.Request {
				return runner.ExecInput{
					Container:   d.String("container", true),
					Command:     d.Strings("command", true),
					WorkingDir:  d.String("workingDir", false),
					Env:         d.Strings("env", false),
					User:        d.String("user", false),
					Privileged:  d.Bool("privileged"),
					Interactive: d.Bool("interactive"),
				}
			},
		},
	}
}

// errorResult renders a classified failure as a tool result.
func errorResult(err error) *ToolCallResult {
	c := classify.Classify(err)
	return &ToolCallResult{
		Content:           textContent(fmt.Sprintf("%s: %s", c.Kind, c.Message)),
		StructuredContent: map[string]any{"error": ErrorPayload{Kind: string(c.Kind), Message: c.Message, Code: c.Code}},
		IsError:           true,
	}
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// renderResult turns a successful operation result into a tool result.
func renderResult(res runner.Result) *ToolCallResult {
	switch r := res.(type) {
	case *runner.ListResult:
		payload := map[string]any{"containers": r.Containers}
		return &ToolCallResult{Content: textContent(indentJSON(r.Containers)), StructuredContent: payload}
	case *runner.LogsResult:
		return &ToolCallResult{Content: textContent(r.Logs)}
	case *runner.InspectResult:
		var out bytes.Buffer
		text := string(r.Document)
		if err := json.Indent(&out, r.Document, "", "  "); err == nil {
			text = out.String()
		}
		return &ToolCallResult{Content: textContent(text), StructuredContent: r.Document}
	case *runner.StatsResult:
		return &ToolCallResult{Content: textContent(r.Table)}
	case *runner.ExecResult:
		return &ToolCallResult{Content: textContent(indentJSON(r.ExecResult)), StructuredContent: r.ExecResult}
	default:
		return errorResult(classify.Newf(classify.Unclassified, "unexpected result type %T", res))
	}
}
