package generator

import (
	"fmt"
	"io"
	"os"
)

// FileSink is where rendered artifacts go. The generator never opens files
// itself.
type FileSink interface {
	EnsureDirectory(path string) error
	WriteText(path, content string) error
}

// DiskSink writes artifacts to the local file system.
type DiskSink struct{}

func (DiskSink) EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

func (DiskSink) WriteText(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// DryRunSink prints each artifact instead of writing it.
type DryRunSink struct {
	Out io.Writer
}

func (DryRunSink) EnsureDirectory(string) error { return nil }

func (s DryRunSink) WriteText(path, content string) error {
	_, err := fmt.Fprintf(s.Out, "==> %s\n%s\n", path, content)
	return err
}
