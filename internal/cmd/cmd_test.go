package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceChangesOnlySetFlags(t *testing.T) {
	flags := pflag.NewFlagSet("preferences", pflag.ContinueOnError)
	flags.Bool("follow", true, "")
	flags.Bool("like", true, "")
	flags.Bool("comment", true, "")
	flags.Bool("email", false, "")
	flags.Bool("push", false, "")
	require.NoError(t, flags.Parse([]string{"--like=false", "--push"}))

	changes := preferenceChanges(flags)
	assert.Nil(t, changes.Follow)
	assert.Nil(t, changes.Comment)
	assert.Nil(t, changes.Email)
	require.NotNil(t, changes.Like)
	assert.False(t, *changes.Like)
	require.NotNil(t, changes.Push)
	assert.True(t, *changes.Push)
	assert.False(t, changes.Empty())
}

func TestSettingsUpdateGroupsFields(t *testing.T) {
	flags := pflag.NewFlagSet("settings", pflag.ContinueOnError)
	for _, name := range []string{"first-name", "last-name", "bio", "website", "location", "privacy"} {
		flags.String(name, "", "")
	}

	require.NoError(t, flags.Parse([]string{"--bio", ""}))
	update := settingsUpdate(flags)
	assert.Nil(t, update.User)
	require.NotNil(t, update.Profile)
	require.NotNil(t, update.Profile.Bio)
	assert.Equal(t, "", *update.Profile.Bio)
	assert.Nil(t, update.Profile.Website)

	flags = pflag.NewFlagSet("settings", pflag.ContinueOnError)
	flags.String("first-name", "", "")
	flags.String("last-name", "", "")
	require.NoError(t, flags.Parse([]string{"--first-name", "Ada"}))
	update = settingsUpdate(flags)
	require.NotNil(t, update.User)
	assert.Equal(t, "Ada", *update.User.FirstName)
	assert.Nil(t, update.User.LastName)
	assert.Nil(t, update.Profile)
}

func TestFlatten(t *testing.T) {
	got := flatten("", map[string]interface{}{
		"api": map[string]interface{}{"base_url": "http://x", "timeout": 30},
		"toast": map[string]interface{}{
			"duration": "5s",
		},
		"top": true,
	})
	assert.Equal(t, map[string]interface{}{
		"api.base_url":   "http://x",
		"api.timeout":    30,
		"toast.duration": "5s",
		"top":            true,
	}, got)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "****", mask("abcd"))
	assert.Equal(t, "abcd**mnop", mask("abcdefmnop"))
}

func TestOptionalArg(t *testing.T) {
	assert.Equal(t, "", optionalArg(nil))
	assert.Equal(t, "me", optionalArg([]string{"me"}))
}
