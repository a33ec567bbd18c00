package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// The session record is a text file of `export KEY="value"` lines that
// later hook processes in the same session source into their
// environment. Writes replace an existing line for the key or append a
// new one; a key never occupies two lines. The whole file is rewritten
// to a temp file and renamed into place, so a racing writer loses
// cleanly instead of interleaving (last writer wins per key).

// writeRecordLine replaces or appends the export line for key
func writeRecordLine(path, key, value string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read session record: %w", err)
	}

	line := formatExportLine(key, value)
	prefix := "export " + key + "="

	var lines []string
	if len(existing) > 0 {
		lines = strings.Split(strings.TrimRight(string(existing), "\n"), "\n")
	}

	replaced := false
	for i, l := range lines {
		if strings.HasPrefix(l, prefix) {
			lines[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, line)
	}

	return atomicWrite(path, strings.Join(lines, "\n")+"\n")
}

// clearRecord removes the session record file. Missing files are fine:
// a session that never persisted anything has nothing to clear.
func clearRecord(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearRecord removes the backing record, used at session end
func (c *Cache) ClearRecord() error {
	if c.recordPath == "" {
		return nil
	}
	return clearRecord(c.recordPath)
}

func formatExportLine(key, value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`").Replace(value)
	return fmt.Sprintf("export %s=\"%s\"", key, escaped)
}

func atomicWrite(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".record-*")
	if err != nil {
		return fmt.Errorf("failed to create temp record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp record: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace session record: %w", err)
	}
	return nil
}
