package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is an external binary the resolver shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the result of checking one requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// MediaTools binds the resolver's fixed tool set to the configured command
// names: yt-dlp for introspection, ffmpeg for frame sampling, ffprobe as the
// optional duration fallback.
func MediaTools(ytDlp, ffmpeg, ffprobe string) []Requirement {
	return []Requirement{
		{Name: "yt-dlp", Command: ytDlp, Description: "Required for media introspection"},
		{Name: "FFmpeg", Command: ffmpeg, Description: "Required for frame sampling"},
		{Name: "FFprobe", Command: ffprobe, Description: "Resolves stream duration when metadata omits it", Optional: true},
	}
}

// Check resolves the requirement against PATH.
func (r Requirement) Check() Status {
	status := Status{
		Name:        r.Name,
		Command:     strings.TrimSpace(r.Command),
		Description: strings.TrimSpace(r.Description),
		Optional:    r.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	if _, err := exec.LookPath(status.Command); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Available = true
	return status
}

// CheckBinaries checks each requirement in order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, req.Check())
	}
	return results
}
