package summary

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/studiowebux/loadbench/internal/config"
)

// Output channel names of a summary output map. Any other key is a file path.
const (
	ChannelStdout = "stdout"
	ChannelStderr = "stderr"
)

// WriteOutputs writes every entry of an output map to its destination.
// Files are written in key order so failures are reproducible.
func WriteOutputs(outputs map[string]string, stdout, stderr io.Writer) error {
	keys := make([]string, 0, len(outputs))
	for key := range outputs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		content := outputs[key]
		switch key {
		case ChannelStdout:
			if _, err := io.WriteString(stdout, content); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		case ChannelStderr:
			if _, err := io.WriteString(stderr, content); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		default:
			if err := os.WriteFile(key, []byte(content), config.FilePermissions); err != nil {
				return fmt.Errorf("failed to write %s: %w", key, err)
			}
		}
	}
	return nil
}
