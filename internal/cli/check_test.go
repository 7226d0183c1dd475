package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckValidManifest(t *testing.T) {
	dir := writeManifest(t, validManifest)

	out, err := execute(t, "check", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 3 declaration(s) valid")
	assert.Contains(t, out, "plan ")
}

func TestCheckJSONReport(t *testing.T) {
	dir := writeManifest(t, validManifest)

	out, err := execute(t, "--format", "json", "check", dir)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.EqualValues(t, 3, dataField(t, resp, "records"))
	assert.EqualValues(t, 1, dataField(t, resp, "environments"))
	assert.NotEmpty(t, dataField(t, resp, "plan_fp"))
}

func TestCheckAmbiguousManifestFails(t *testing.T) {
	dir := writeManifest(t, ambiguousManifest)

	out, err := execute(t, "check", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E203")
}

func TestCheckEagerCycleFails(t *testing.T) {
	dir := writeManifest(t, `
declare: {
	A: {
		type: "x.A"
		kind: "eagerSingleton"
		params: [{type: "x.B"}]
	}
	B: {
		type: "x.B"
		kind: "eagerSingleton"
		params: [{type: "x.A"}]
	}
}
`)

	out, err := execute(t, "check", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E210")
	assert.Contains(t, out, "A -> B -> A")
}

func TestCheckMissingDirectoryIsCommandError(t *testing.T) {
	out, err := execute(t, "check", "/nonexistent/manifests")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E001")
}
