package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd(t *testing.T) {
	cmd := getRootCmd()
	assert.Equal(t, "gnotu", cmd.Use)
	assert.NotNil(t, cmd.PersistentPreRunE)
	assert.NotNil(t, cmd.RunE)
	assert.True(t, cmd.SilenceErrors)
	assert.True(t, cmd.SilenceUsage)
	assert.NotSame(t, cmd, getRootCmd())

	names := make(map[string]bool)
	for _, v := range cmd.Commands() {
		names[v.Name()] = true
	}
	for _, v := range []string{
		"create", "optimize", "taxonomy", "search", "export", "cache", "fields",
	} {
		assert.True(t, names[v], v)
	}
}

func TestRootCmdVersion(t *testing.T) {
	for _, flag := range []string{"--version", "-V"} {
		cmd := getRootCmd()
		cmd.Version = "version: v1.2.3\nbuild:   abc123"

		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetArgs([]string{flag})
		require.NoError(t, cmd.Execute())

		assert.Contains(t, buf.String(), "v1.2.3", flag)
		assert.Contains(t, buf.String(), "abc123", flag)
		assert.NotContains(t, buf.String(), "gnotu version", flag)
	}
}

func TestRootCmdUnknown(t *testing.T) {
	cmd := getRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"nonexistent-command"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd   string
		flags []string
	}{
		{"create", []string{"force", "migrate"}},
		{"taxonomy", []string{"amplicon", "selected", "search", "limit"}},
		{"search", []string{"fields", "sort", "dir", "values", "sample"}},
		{"export", []string{"kingdom", "output"}},
		{"fields", []string{"vocabulary"}},
	}

	root := getRootCmd()
	for _, v := range tests {
		c, _, err := root.Find([]string{v.cmd})
		require.NoError(t, err, v.cmd)
		for _, f := range v.flags {
			assert.NotNil(t, c.Flags().Lookup(f), v.cmd+" --"+f)
		}
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("store"))
	assert.NotNil(t, root.PersistentFlags().Lookup("cache"))
}
