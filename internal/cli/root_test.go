package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirecue/wirecue/internal/model"
)

func TestRootRejectsInvalidFormat(t *testing.T) {
	dir := writeManifest(t, validManifest)

	_, err := execute(t, "--format", "yaml", "check", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootAcceptsKnownFormats(t *testing.T) {
	dir := writeManifest(t, validManifest)

	for _, format := range ValidFormats {
		_, err := execute(t, "--format", format, "check", dir)
		assert.NoError(t, err, "format %s", format)
	}
}

func TestRootReportsVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, model.GeneratorVersion)
}

func TestRootListsSubcommands(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"generate", "check", "plan", "history"} {
		assert.Contains(t, out, sub)
	}
}
