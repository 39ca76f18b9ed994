package pointcloud

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// CS2CSReprojector implements tilevault.Reprojector by shelling out to the
// PROJ cs2cs utility. The engine stays agnostic of transform math; cs2cs
// accepts the same CRS spellings (WKT, authority:code) the extractor emits.
type CS2CSReprojector struct {
	// Command is the cs2cs executable, "cs2cs" if empty.
	Command string
}

// NewCS2CSReprojector creates a reprojector using the cs2cs binary on PATH.
func NewCS2CSReprojector() *CS2CSReprojector {
	return &CS2CSReprojector{Command: "cs2cs"}
}

// TransformPoints reprojects (x, y) pairs from srcCRS into dstCRS.
func (r *CS2CSReprojector) TransformPoints(srcCRS, dstCRS string, points [][2]float64) ([][2]float64, error) {
	command := r.Command
	if command == "" {
		command = "cs2cs"
	}

	// cs2cs knows CRS84 by its OGC authority name.
	dst := dstCRS
	if dst == CRS84 {
		dst = "OGC:CRS84"
	}

	var stdin bytes.Buffer
	for _, p := range points {
		stdin.WriteString(strconv.FormatFloat(p[0], 'f', -1, 64))
		stdin.WriteByte(' ')
		stdin.WriteString(strconv.FormatFloat(p[1], 'f', -1, 64))
		stdin.WriteByte('\n')
	}

	cmd := exec.Command(command, "-f", "%.10f", srcCRS, dst)
	cmd.Stdin = &stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("cs2cs: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseCS2CSOutput(stdout.String(), len(points))
}

// parseCS2CSOutput reads cs2cs stdout: one point per line, x and y in the
// first two whitespace-separated fields (a third z field may follow).
func parseCS2CSOutput(output string, want int) ([][2]float64, error) {
	var result [][2]float64
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("cs2cs: malformed output line %q", line)
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("cs2cs: malformed coordinate %q: %w", fields[0], err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("cs2cs: malformed coordinate %q: %w", fields[1], err)
		}
		result = append(result, [2]float64{x, y})
	}
	if len(result) != want {
		return nil, fmt.Errorf("cs2cs: got %d points, want %d", len(result), want)
	}
	return result, nil
}

// Verify CS2CSReprojector implements the Reprojector interface at compile time
var _ tilevault.Reprojector = (*CS2CSReprojector)(nil)
