// File: cmd/cmd_test.go
package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["infer"], "infer subcommand must be registered")
	assert.True(t, names["compress"], "compress subcommand must be registered")
	assert.True(t, names["version"], "version subcommand must be registered")

	assert.Equal(t, Version, rootCmd.Version)
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestInferCommandFlags(t *testing.T) {
	c := newInferCmd()

	out := c.Flags().Lookup("output")
	require.NotNil(t, out)
	assert.Equal(t, "reflow-output.json", out.DefValue)
	assert.Equal(t, "o", out.Shorthand)

	require.NotNil(t, c.Flags().Lookup("artifact"))
	require.NotNil(t, c.Flags().Lookup("max-nodes"))
	assert.Error(t, c.Args(c, nil), "a capture path is required")
	assert.NoError(t, c.Args(c, []string{"capture.json"}))
}

func TestCompressCommandFlags(t *testing.T) {
	c := newCompressCmd()

	require.NotNil(t, c.Flags().Lookup("aggressive"))
	require.NotNil(t, c.Flags().Lookup("target-size"))
	assert.Error(t, c.Args(c, []string{"only-one"}))
	assert.NoError(t, c.Args(c, []string{"in.json", "out.json"}))
}
