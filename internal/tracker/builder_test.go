package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticCreds map[string]string

func (c staticCreds) GetConfiguration(_ context.Context, _, key string) (string, error) {
	return c[key], nil
}

func TestBuilderReturnsAdapterPerPlatform(t *testing.T) {
	builder := NewBuilder(staticCreds{
		ConfigKeyGitHubToken:    "gh",
		ConfigKeyGitLabToken:    "gl",
		ConfigKeyJiraUser:       "bot@example.com",
		ConfigKeyJiraToken:      "jira",
		ConfigKeyForgejoToken:   "fj",
		ConfigKeySourceHutToken: "sh",
	}, time.Second, zap.NewNop())

	for _, platform := range []Platform{
		PlatformGitHub, PlatformGitLab, PlatformJira, PlatformForgejo, PlatformSourceHut,
	} {
		adapter, err := builder.Adapter(context.Background(), "acme", platform)
		require.NoError(t, err, "platform %s", platform)
		assert.Equal(t, platform, adapter.Platform())
	}
}

func TestBuilderMissingCredential(t *testing.T) {
	builder := NewBuilder(staticCreds{}, time.Second, zap.NewNop())

	_, err := builder.Adapter(context.Background(), "acme", PlatformGitHub)
	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, PlatformGitHub, missing.Platform)
	assert.Equal(t, ConfigKeyGitHubToken, missing.Key)
}

func TestBuilderJiraRequiresUserAndToken(t *testing.T) {
	builder := NewBuilder(staticCreds{ConfigKeyJiraUser: "bot@example.com"}, time.Second, zap.NewNop())

	_, err := builder.Adapter(context.Background(), "acme", PlatformJira)
	var missing *MissingCredentialError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, ConfigKeyJiraToken, missing.Key)
}

func TestBuilderUnsupportedPlatform(t *testing.T) {
	builder := NewBuilder(staticCreds{}, time.Second, zap.NewNop())
	_, err := builder.Adapter(context.Background(), "acme", Platform("bugzilla"))
	assert.Error(t, err)
}
