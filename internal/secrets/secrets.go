// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of
// plain-text files. Each file holds one secret: the filename, upper-cased
// with dashes mapped to underscores, becomes the key, and the trimmed
// file contents the value. That way .secrets/anthropic-api-key resolves
// under the same name as the ANTHROPIC_API_KEY environment variable.
//
// Key files paperwatch looks for: anthropic-api-key, openai-api-key,
// zotero-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Load reads every file in dir into a key/value map. A missing directory
// is not an error; Load returns an empty map. Unreadable files produce a
// warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", entry.Name(), err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[keyName(entry.Name())] = value
		}
	}

	return secrets, nil
}

// keyName maps a secret filename to its environment-style key.
func keyName(file string) string {
	return strings.ToUpper(strings.ReplaceAll(file, "-", "_"))
}
