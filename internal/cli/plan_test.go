package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirecue/wirecue/internal/model"
)

func TestPlanTextOutput(t *testing.T) {
	dir := writeManifest(t, validManifest)

	out, err := execute(t, "plan", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "plan ")
	assert.Contains(t, out, "unconditional:")
	assert.Contains(t, out, "eagerSingleton")
	assert.Contains(t, out, "app/config.Config")
	assert.Contains(t, out, `environment "dev":`)
	assert.Contains(t, out, "app/svc.Service")
}

func TestPlanJSONOutput(t *testing.T) {
	dir := writeManifest(t, validManifest)

	out, err := execute(t, "--format", "json", "plan", dir)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, model.PlanVersion, dataField(t, resp, "schema"))
	assert.NotEmpty(t, dataField(t, resp, "fingerprint"))

	plan, ok := dataField(t, resp, "plan").(map[string]any)
	require.True(t, ok)
	uncond, ok := plan["unconditional"].([]any)
	require.True(t, ok)
	assert.Len(t, uncond, 2)
}

func TestPlanInvalidManifestFails(t *testing.T) {
	dir := writeManifest(t, ambiguousManifest)

	out, err := execute(t, "plan", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E203")
}
