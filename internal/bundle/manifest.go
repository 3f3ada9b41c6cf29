package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/klauspost/compress/zip"
	"github.com/tidwall/jsonc"
)

const (
	manifestName    = "manifest.json"
	maxManifestSize = 1 << 20 // 1 MB
)

// ErrNoManifest is returned when a bundle has no manifest.json.
var ErrNoManifest = errors.New("bundle has no manifest.json")

// Manifest is the subset of an extension's manifest.json used for logging
// and error context.
type Manifest struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	ManifestVersion int    `json:"manifest_version"`

	BrowserSpecificSettings struct {
		Gecko struct {
			ID string `json:"id"`
		} `json:"gecko"`
	} `json:"browser_specific_settings"`
}

// GeckoID returns the Firefox add-on ID declared in the manifest, if any.
func (m *Manifest) GeckoID() string {
	return m.BrowserSpecificSettings.Gecko.ID
}

// ReadManifest opens the zip at bundlePath and decodes its manifest.json.
// The manifest may sit at the archive root or inside a single top-level
// directory.
func ReadManifest(bundlePath string) (*Manifest, error) {
	r, err := zip.OpenReader(bundlePath)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var candidate *zip.File
	for _, f := range r.File {
		name := strings.TrimPrefix(f.Name, "./")
		if name == manifestName {
			candidate = f
			break
		}
		if candidate == nil && path.Base(name) == manifestName && strings.Count(name, "/") == 1 {
			candidate = f
		}
	}
	if candidate == nil {
		return nil, ErrNoManifest
	}
	if candidate.UncompressedSize64 > maxManifestSize {
		return nil, fmt.Errorf("manifest.json exceeds maximum size (%d bytes)", maxManifestSize)
	}

	rc, err := candidate.Open()
	if err != nil {
		return nil, fmt.Errorf("open manifest.json: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxManifestSize+1))
	if err != nil {
		return nil, fmt.Errorf("read manifest.json: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("parse manifest.json: %w", err)
	}
	return &m, nil
}

// ManifestOrEmpty reads the manifest for logging purposes only. Failures are
// logged and an empty manifest is returned.
func ManifestOrEmpty(bundlePath string) *Manifest {
	m, err := ReadManifest(bundlePath)
	if err != nil {
		log.Printf("[Bundle] WARNING: cannot read manifest from %s: %v", bundlePath, err)
		return &Manifest{}
	}
	return m
}

// Digest returns the hex SHA-256 of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VersionMismatch compares the manifest version with the version descriptor
// and returns a warning when both parse as versions and differ. Versions
// that do not parse (e.g. four-part Chrome versions) are not compared.
func VersionMismatch(manifestVersion, descriptorVersion string) string {
	if manifestVersion == "" || descriptorVersion == "" {
		return ""
	}
	mv, err := semver.NewVersion(manifestVersion)
	if err != nil {
		return ""
	}
	dv, err := semver.NewVersion(descriptorVersion)
	if err != nil {
		return ""
	}
	if mv.Equal(dv) {
		return ""
	}
	return fmt.Sprintf("bundle manifest version %s differs from version file version %s", mv, dv)
}
