package docker

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mensylisir/dockmcp/pkg/common"
	"github.com/mensylisir/dockmcp/pkg/util"
)

// ParseContainerList parses output produced with common.ContainerListFormat.
// Empty lines are skipped, missing trailing fields default to "" and one pair of
// surrounding double quotes is stripped from every field.
func ParseContainerList(output string) []ContainerRecord {
	lines := util.NonEmptyLines(output)
	records := make([]ContainerRecord, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, "\t", common.ContainerListFields)
		var fields [common.ContainerListFields]string
		for i := range parts {
			fields[i] = util.TrimQuotes(parts[i])
		}
		records = append(records, ContainerRecord{
			ID:      fields[0],
			Name:    fields[1],
			Image:   fields[2],
			Status:  fields[3],
			Ports:   fields[4],
			Created: fields[5],
			Command: fields[6],
		})
	}
	return records
}

// ParseInspect returns the raw JSON of the first element of `docker inspect` output.
func ParseInspect(output string) ([]byte, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, fmt.Errorf("docker inspect returned no output")
	}
	if !gjson.Valid(trimmed) {
		return nil, fmt.Errorf("docker inspect returned invalid JSON: %s", util.Truncate(trimmed, 200))
	}
	doc := gjson.Parse(trimmed)
	if !doc.IsArray() {
		return nil, fmt.Errorf("docker inspect returned %s, expected a JSON array", doc.Type)
	}
	first := doc.Get("0")
	if !first.Exists() {
		return nil, fmt.Errorf("docker inspect returned an empty array")
	}
	return []byte(first.Raw), nil
}

// CombineLogs joins the two log channels, stdout first. An empty channel is dropped
// instead of leaving a blank line behind.
func CombineLogs(stdout, stderr string) string {
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stdout + "\n" + stderr
	}
}

// InspectSummary pulls the fields the CLI prints for a short inspect view.
type InspectSummary struct {
	ID        string
	Name      string
	Image     string
	State     string
	Running   bool
	StartedAt string
	IPAddress string
}

func SummarizeInspect(doc []byte) InspectSummary {
	r := gjson.ParseBytes(doc)
	return InspectSummary{
		ID:        r.Get("Id").String(),
		Name:      strings.TrimPrefix(r.Get("Name").String(), "/"),
		Image:     r.Get("Config.Image").String(),
		State:     r.Get("State.Status").String(),
		Running:   r.Get("State.Running").Bool(),
		StartedAt: r.Get("State.StartedAt").String(),
		IPAddress: r.Get("NetworkSettings.IPAddress").String(),
	}
}
