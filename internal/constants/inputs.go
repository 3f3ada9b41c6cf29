package constants

// Action input names. Aliases are listed in precedence order.
const (
	InputKeys        = "keys"
	InputKeysFile    = "keys-file"
	InputVersionFile = "version-file"
	InputVerbose     = "verbose"

	// StoreFileInputSuffix is appended to a store name to form its
	// store-specific artifact input, e.g. "chrome-file".
	StoreFileInputSuffix = "-file"
)

// ArtifactInputs are the global artifact inputs, first non-empty wins.
var ArtifactInputs = []string{"file", "zip", "artifact"}

// NotesInputs are the global release-notes inputs, first non-empty wins.
var NotesInputs = []string{"notes", "edge-notes"}

// Store option field names shared by every store.
const (
	OptionZip         = "zip"
	OptionFile        = "file"
	OptionVersionFile = "versionFile"
	OptionVerbose     = "verbose"
	OptionDryRun      = "dryRun"
	OptionNotes       = "notes"
)

// DefaultVersionFile is read for {version} substitution when a store does
// not name its own descriptor.
const DefaultVersionFile = "package.json"

// VersionPlaceholder is replaced in bundle paths by the descriptor version.
const VersionPlaceholder = "{version}"
