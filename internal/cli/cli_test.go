package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeManifest drops a single CUE manifest into a fresh directory.
func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deps.cue"), []byte(content), 0644))
	return dir
}

const validManifest = `
declare: {
	Config: {
		type: "app/config.Config"
		kind: "eagerSingleton"
	}
	Client: {
		type: "app/net.Client"
		params: [{type: "app/config.Config"}]
	}
	Mock: {
		type: "app/svc.Service"
		env: ["dev"]
	}
}
`

const ambiguousManifest = `
declare: {
	First: {type: "app/user.Service"}
	Second: {type: "app/user.Service"}
}
`

// decodeResponse parses a JSON CLIResponse envelope.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func dataField(t *testing.T, resp CLIResponse, key string) any {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %T", resp.Data)
	return data[key]
}
