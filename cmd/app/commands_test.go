package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCommands(t *testing.T) {
	cmds := getCommands("test")

	categories := make(map[string]string, len(cmds))
	for _, cmd := range cmds {
		require.NotEmpty(t, cmd.Category, cmd.Name)
		_, duplicate := categories[cmd.Name]
		require.False(t, duplicate, "duplicate command %s", cmd.Name)
		categories[cmd.Name] = cmd.Category
	}

	assert.Equal(t, map[string]string{
		"server":            categorySystem,
		"migrate":           categorySystem,
		"create-secret-key": categoryKeys,
		"create-api-key":    categoryAuth,
		"list-api-keys":     categoryAuth,
		"revoke-api-key":    categoryAuth,
		"issue-token":       categoryAuth,
	}, categories)
}
