package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeys(t *testing.T) {
	keys, err := ParseKeys(`{
		// comments are allowed
		"chrome": {"zip": "a.zip", "extId": "abc", "clientId": "id", "refreshToken": "rt"},
		"Firefox": {"apiKey": "k",},
		"safari": {"whatever": 1}
	}`)
	require.NoError(t, err)

	require.Contains(t, keys, Chrome)
	assert.Equal(t, "a.zip", keys[Chrome].Bundle())
	assert.Contains(t, keys, Firefox, "store names are case-insensitive")
	assert.Contains(t, keys, ID("safari"), "unknown stores are kept until filtering")
}

func TestParseKeys_Empty(t *testing.T) {
	_, err := ParseKeys("   ")
	assert.True(t, errors.Is(err, ErrNoKeys))
}

func TestParseKeys_Malformed(t *testing.T) {
	_, err := ParseKeys(`{"chrome": `)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse keys")
}

func TestParseKeys_SchemaViolations(t *testing.T) {
	for name, raw := range map[string]string{
		"not an object":      `["chrome"]`,
		"store not object":   `{"chrome": "a.zip"}`,
		"mixed-case store":   `{"Edge": ["e.zip"]}`,
		"zip not string":     `{"chrome": {"zip": 3}}`,
		"verbose wrong type": `{"edge": {"verbose": 1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseKeys(raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid keys")
		})
	}
}

func TestParseKeys_EmptyStoreOptions(t *testing.T) {
	keys, err := ParseKeys(`{"firefox": {}}`)
	require.NoError(t, err)
	assert.NotNil(t, keys[Firefox])
	assert.Empty(t, keys[Firefox].Bundle())
}

func TestParseKeys_UnknownEntriesIgnored(t *testing.T) {
	keys, err := ParseKeys(`{
		"chrome": {"zip": "a.zip"},
		"comment": "ci secrets v2",
		"retries": 3,
		"safari": null,
		"brave": {"zip": 7}
	}`)
	require.NoError(t, err)

	assert.Equal(t, "a.zip", keys[Chrome].Bundle())
	assert.NotContains(t, keys, ID("comment"))
	assert.NotContains(t, keys, ID("retries"))
	assert.NotContains(t, keys, ID("safari"))
	assert.Contains(t, keys, ID("brave"))
	assert.Equal(t, []ID{Chrome}, Candidates(keys))
}

func TestParseKeys_NullStoreIsEmptyOptions(t *testing.T) {
	keys, err := ParseKeys(`{"itero": null}`)
	require.NoError(t, err)
	require.Contains(t, keys, Itero)
	assert.NotNil(t, keys[Itero])
}

func TestParseKeys_CaseDuplicatesRejected(t *testing.T) {
	_, err := ParseKeys(`{"chrome": {"zip": "a.zip"}, "Chrome": {"zip": "b.zip"}}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Chrome" and "chrome" name the same store`)
}
