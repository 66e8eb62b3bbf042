package pico

import (
	"fmt"
	"strings"
)

// UploadFile writes content to a file on the device's flash filesystem by
// driving the interactive REPL line by line. Suitable for small text files;
// it inherits ExecuteCommand's fixed per-line settle, so a large file is
// slow by construction.
func (c *Connection) UploadFile(name, content string) error {
	if _, err := c.ExecuteCommand(fmt.Sprintf("f = open(%q, 'w')", name)); err != nil {
		return fmt.Errorf("open %s for write: %w", name, err)
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		escaped := strings.ReplaceAll(line, `"`, `\"`)
		if _, err := c.ExecuteCommand(fmt.Sprintf(`f.write("%s\n")`, escaped)); err != nil {
			return fmt.Errorf("write line to %s: %w", name, err)
		}
	}

	if _, err := c.ExecuteCommand("f.close()"); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}

	c.logInfo("file uploaded", "name", name, "bytes", len(content))
	return nil
}

// ListFiles returns the names in the device's flash filesystem root, parsed
// from the REPL's echo of os.listdir(). Returns an empty slice when the
// listing cannot be located in the output.
func (c *Connection) ListFiles() ([]string, error) {
	out, err := c.ExecuteCommand("import os; print(os.listdir())")
	if err != nil {
		return nil, err
	}
	return parseFileList(out), nil
}

// parseFileList extracts file names from a Python list literal embedded in
// REPL output, e.g. "['main.py', 'boot.py']". The REPL echoes the command
// itself too, so only a line that is bracket-delimited after trimming is
// considered.
func parseFileList(out string) []string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}

		inner := strings.TrimSpace(line[1 : len(line)-1])
		if inner == "" {
			return []string{}
		}

		parts := strings.Split(inner, ",")
		files := make([]string, 0, len(parts))
		for _, p := range parts {
			name := strings.Trim(strings.TrimSpace(p), `'"`)
			if name != "" {
				files = append(files, name)
			}
		}
		return files
	}
	return []string{}
}
