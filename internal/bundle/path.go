// Package bundle locates and inspects extension bundles: the archive path
// after {version} substitution and the manifest.json packed inside it.
package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/constants"
)

// ResolvePath returns the bundle path for opts with the version placeholder
// substituted. The path is returned unchanged when it has no placeholder or
// the version descriptor does not exist. A descriptor that cannot be decoded
// is an error.
func ResolvePath(opts browser.Options) (string, error) {
	path := opts.Bundle()
	if !strings.Contains(path, constants.VersionPlaceholder) {
		return path, nil
	}

	version, found, err := ReadVersion(opts.VersionFile())
	if err != nil {
		return "", err
	}
	if !found {
		return path, nil
	}
	return strings.Replace(path, constants.VersionPlaceholder, version, 1), nil
}

// ReadVersion reads the "version" field from a version descriptor. found is
// false when the file does not exist. JSON (with comments) is the default
// format; .yaml and .yml files are decoded as YAML.
func ReadVersion(descriptor string) (version string, found bool, err error) {
	data, err := os.ReadFile(descriptor)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read version file: %w", err)
	}

	var doc map[string]any
	switch strings.ToLower(filepath.Ext(descriptor)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return "", true, fmt.Errorf("parse version file %s: %w", descriptor, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
			return "", true, fmt.Errorf("parse version file %s: %w", descriptor, err)
		}
	}

	switch v := doc["version"].(type) {
	case string:
		return v, true, nil
	case nil:
		return "", true, nil
	default:
		return fmt.Sprint(v), true, nil
	}
}

// AbsPath resolves path against the current working directory.
func AbsPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	return abs, nil
}
