package host

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ajitpratap0/sparquet/pkg/compression"
)

// WriteNames writes one column name per line to path, the side channel the
// host reads variable names from.
func WriteNames(path string, names []string) error {
	f, err := os.Create(path) //nolint:gosec // G304: path is chosen by the host
	if err != nil {
		return fmt.Errorf("failed to create names file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, name := range names {
		if _, err := w.WriteString(name + "\n"); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write names file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write names file: %w", err)
	}
	return f.Close()
}

// ReadNames reads a names file written by WriteNames or by the host.
func ReadNames(path string) ([]string, error) {
	return readLines(path, false)
}

// ReadManifest reads a newline-delimited list of file paths. Blank lines are
// skipped. A manifest with a compression suffix is decompressed.
func ReadManifest(path string) ([]string, error) {
	return readLines(path, true)
}

func readLines(path string, skipBlank bool) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is chosen by the host
	if err != nil {
		return nil, fmt.Errorf("unable to read file '%s': %w", path, err)
	}
	defer f.Close()

	alg := compression.None
	if skipBlank {
		alg = compression.ForPath(path)
	}
	r, err := compression.NewReader(f, alg)
	if err != nil {
		return nil, fmt.Errorf("unable to read file '%s': %w", path, err)
	}
	defer r.Close()

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if skipBlank && strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("unable to read file '%s': %w", path, err)
	}
	return lines, nil
}
