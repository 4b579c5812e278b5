/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BasicRegistration(t *testing.T) {
	registry := NewRegistry()
	testCmd := &cobra.Command{Use: "check", Short: "Check assets"}

	require.NoError(t, registry.Register("check", GroupCheck, testCmd, "Check assets"))

	cmd, exists := registry.GetCommand("check")
	require.True(t, exists)
	assert.Equal(t, "check", cmd.Name)
	assert.Equal(t, GroupCheck, cmd.Group)
	assert.Equal(t, "Check assets", cmd.Description)
	assert.Same(t, testCmd, cmd.Command)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewRegistry()
	c := &cobra.Command{Use: "index"}

	require.NoError(t, registry.Register("index", GroupSupport, c, "first"))
	err := registry.Register("index", GroupSupport, c, "second")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegistry_UnknownGroup(t *testing.T) {
	registry := NewRegistry()
	err := registry.Register("format", CommandGroup("neat"), &cobra.Command{Use: "format"}, "")
	assert.Error(t, err)
	_, exists := registry.GetCommand("format")
	assert.False(t, exists)
}

func TestRegistry_GroupsSortedByName(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"watch", "check", "validate"} {
		require.NoError(t, registry.Register(name, GroupCheck, &cobra.Command{Use: name}, name))
	}
	require.NoError(t, registry.Register("session", GroupSession, &cobra.Command{Use: "session"}, ""))

	var names []string
	for _, c := range registry.GetCommandsByGroup(GroupCheck) {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"check", "validate", "watch"}, names)
	assert.Equal(t, map[CommandGroup]int{GroupCheck: 3, GroupSession: 1}, registry.ListGroups())
	assert.Empty(t, registry.GetCommandsByGroup(GroupSupport))
}

func TestGroupTitles(t *testing.T) {
	assert.Equal(t, []CommandGroup{GroupCheck, GroupSession, GroupSupport}, Groups())
	assert.Equal(t, "Check Commands", GroupCheck.Title())
	assert.Equal(t, "custom", CommandGroup("custom").Title())
}
