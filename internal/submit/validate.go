package submit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/nupi-ai/webstore-publish/internal/browser"
	"github.com/nupi-ai/webstore-publish/internal/bundle"
)

// Validate checks a store's options before any network activity and returns
// the absolute path of its bundle with the version placeholder substituted.
// required maps option names to the reason reported when one is missing;
// names are checked in sorted order so the reported reason is stable.
func Validate(id browser.ID, opts browser.Options, required map[string]string) (string, error) {
	names := make([]string, 0, len(required))
	for name := range required {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !opts.Has(name) {
			return "", fmt.Errorf("%s: %s", id.DisplayName(), required[name])
		}
	}

	if opts.Bundle() == "" {
		return "", fmt.Errorf("%s: No extension bundle provided", id.DisplayName())
	}

	resolved, err := bundle.ResolvePath(opts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", id.DisplayName(), err)
	}
	abs, err := bundle.AbsPath(resolved)
	if err != nil {
		return "", fmt.Errorf("%s: %w", id.DisplayName(), err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: Extension bundle file doesn't exist: %s", id.DisplayName(), abs)
		}
		return "", fmt.Errorf("%s: stat bundle: %w", id.DisplayName(), err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s: Extension bundle is a directory: %s", id.DisplayName(), abs)
	}
	return abs, nil
}
