package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Builder constructs adapters with tenant-scoped credentials. The platform →
// behavior mapping is fixed; only credentials vary per dataspace.
type Builder struct {
	creds   CredentialSource
	timeout time.Duration
	logger  *zap.Logger
}

// NewBuilder creates the adapter builder.
func NewBuilder(creds CredentialSource, timeout time.Duration, logger *zap.Logger) *Builder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Builder{creds: creds, timeout: timeout, logger: logger}
}

// Adapter returns a ready adapter for the platform, loading the dataspace's
// credentials. Absent credentials yield a MissingCredentialError.
func (b *Builder) Adapter(ctx context.Context, dataspace string, platform Platform) (Adapter, error) {
	switch platform {
	case PlatformGitHub:
		token, err := b.credential(ctx, dataspace, platform, ConfigKeyGitHubToken)
		if err != nil {
			return nil, err
		}
		return NewGitHubAdapter(token, b.timeout, b.logger)
	case PlatformGitLab:
		token, err := b.credential(ctx, dataspace, platform, ConfigKeyGitLabToken)
		if err != nil {
			return nil, err
		}
		return NewGitLabAdapter(token, b.timeout, b.logger, ""), nil
	case PlatformJira:
		user, err := b.credential(ctx, dataspace, platform, ConfigKeyJiraUser)
		if err != nil {
			return nil, err
		}
		token, err := b.credential(ctx, dataspace, platform, ConfigKeyJiraToken)
		if err != nil {
			return nil, err
		}
		return NewJiraAdapter(user, token, b.timeout, b.logger, ""), nil
	case PlatformForgejo:
		token, err := b.credential(ctx, dataspace, platform, ConfigKeyForgejoToken)
		if err != nil {
			return nil, err
		}
		return NewForgejoAdapter(token, b.timeout, b.logger), nil
	case PlatformSourceHut:
		token, err := b.credential(ctx, dataspace, platform, ConfigKeySourceHutToken)
		if err != nil {
			return nil, err
		}
		return NewSourceHutAdapter(token, b.timeout, b.logger, ""), nil
	}
	return nil, fmt.Errorf("unsupported tracker platform %q", platform)
}

func (b *Builder) credential(ctx context.Context, dataspace string, platform Platform, key string) (string, error) {
	value, err := b.creds.GetConfiguration(ctx, dataspace, key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", &MissingCredentialError{Platform: platform, Key: key}
	}
	return value, nil
}
