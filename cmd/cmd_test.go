package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"media-ingest/config"
)

func TestRootCommands(t *testing.T) {
	root := Root(&config.Config{})

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["server"])
	assert.True(t, names["migrate"])
	assert.True(t, names["sweep"])
}

func TestSweepFlags(t *testing.T) {
	cmd := sweep(&config.Config{})
	require.NoError(t, cmd.ParseFlags([]string{"--project", "blog", "--delete", "--grace", "30m"}))

	project, err := cmd.Flags().GetString("project")
	require.NoError(t, err)
	assert.Equal(t, "blog", project)

	remove, err := cmd.Flags().GetBool("delete")
	require.NoError(t, err)
	assert.True(t, remove)

	grace, err := cmd.Flags().GetDuration("grace")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, grace)
}
