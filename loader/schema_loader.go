package loader

import (
	"fmt"
	"os"

	"github.com/paulobunga/parkman/schema"
)

// LoadSchema reads and parses the schema file at filename.
func LoadSchema(filename string) (schema.Schema, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("reading schema file: %w", err)
	}

	s, err := schema.Parse(string(data))
	if err != nil {
		return schema.Schema{}, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return s, nil
}
