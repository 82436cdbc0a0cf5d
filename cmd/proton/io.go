package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const stdio = "-"

func readInput(rc *runContext, path string) ([]byte, error) {
	if path == stdio || path == "" {
		return io.ReadAll(rc.stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// readText reads a text document, honoring a UTF-8 or UTF-16 byte order mark
// and returning UTF-8.
func readText(rc *runContext, path string) ([]byte, error) {
	raw, err := readInput(rc, path)
	if err != nil {
		return nil, err
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), dec))
	if err != nil {
		return nil, fmt.Errorf("decode text %s: %w", path, err)
	}
	return out, nil
}

func writeOutput(rc *runContext, path string, data []byte) error {
	if path == stdio || path == "" {
		_, err := rc.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
