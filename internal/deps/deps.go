// Package deps reports availability of the external binaries the pipeline
// shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Status describes one external dependency check.
type Status struct {
	Name        string
	Command     string
	Available   bool
	Description string
	Detail      string
}

// Check resolves a binary on PATH and reports its status.
func Check(name, description string) Status {
	result := Status{
		Name:        name,
		Description: description,
	}

	binary := strings.TrimSpace(name)
	if binary == "" {
		result.Detail = "empty binary name"
		return result
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		result.Command = binary
		result.Detail = fmt.Sprintf("binary %q not found", binary)
		return result
	}

	result.Command = path
	result.Available = true
	return result
}

// FFmpeg reports availability of the ffmpeg binary used for concatenation.
func FFmpeg() Status {
	return Check("ffmpeg", "Concatenates story clips into the daily video")
}

// FFprobe reports availability of the ffprobe binary used to measure the
// merged output.
func FFprobe() Status {
	return Check("ffprobe", "Measures merged video duration")
}

// Verify returns an error when any required binary is missing.
func Verify() error {
	for _, status := range []Status{FFmpeg(), FFprobe()} {
		if !status.Available {
			return fmt.Errorf("missing dependency %s: %s", status.Name, status.Detail)
		}
	}
	return nil
}
