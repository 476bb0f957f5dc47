package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPolicyDefaults(t *testing.T) {
	holder, err := NewPolicyHolder(Config{}, zap.NewNop())
	require.NoError(t, err)

	p := holder.Get()
	assert.Equal(t, 14*24*time.Hour, p.InvitationTTL)
	assert.Equal(t, EmployerDemotionPreserveVerified, p.EmployerDemotion)
	assert.Equal(t, 5*time.Second, p.RestoreWindow)
}

func TestPolicyFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	content := []byte("policy:\n  invitation_ttl: 72h\n  employer_demotion: strict\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	holder, err := NewPolicyHolder(Config{PolicyFile: path}, zap.NewNop())
	require.NoError(t, err)

	p := holder.Get()
	assert.Equal(t, 72*time.Hour, p.InvitationTTL)
	assert.Equal(t, EmployerDemotionStrict, p.EmployerDemotion)
	assert.Equal(t, 4000, p.MaxMessageLength)
}

func TestPolicyPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  invitation_ttl: 72h\n"), 0o600))

	holder, err := NewPolicyHolder(Config{PolicyFile: path}, zap.NewNop())
	require.NoError(t, err)

	want := DefaultPolicy()
	want.InvitationTTL = 72 * time.Hour
	assert.Equal(t, want, holder.Get())
}

func TestPolicyEnvOverrides(t *testing.T) {
	t.Setenv("INVITATION_TTL", "72h")
	t.Setenv("STAGE_EMPLOYER_DEMOTION", "strict")
	t.Setenv("RESTORE_WINDOW", "30s")
	t.Setenv("MAX_MESSAGE_LENGTH", "500")

	holder, err := NewPolicyHolder(Config{}, zap.NewNop())
	require.NoError(t, err)

	p := holder.Get()
	assert.Equal(t, 72*time.Hour, p.InvitationTTL)
	assert.Equal(t, EmployerDemotionStrict, p.EmployerDemotion)
	assert.Equal(t, 30*time.Second, p.RestoreWindow)
	assert.Equal(t, 500, p.MaxMessageLength)
	assert.Equal(t, 2000, p.MaxInvitationText)
}

func TestPolicyPrefixedEnvOverride(t *testing.T) {
	t.Setenv("INTERNLINK_POLICY_INVITATION_TTL", "48h")

	holder, err := NewPolicyHolder(Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, holder.Get().InvitationTTL)
}

func TestPolicyEnvWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  employer_demotion: strict\n  restore_window: 10s\n"), 0o600))
	t.Setenv("RESTORE_WINDOW", "1m")

	holder, err := NewPolicyHolder(Config{PolicyFile: path}, zap.NewNop())
	require.NoError(t, err)

	p := holder.Get()
	assert.Equal(t, EmployerDemotionStrict, p.EmployerDemotion)
	assert.Equal(t, time.Minute, p.RestoreWindow)
}

func TestPolicyRejectsMalformedEnv(t *testing.T) {
	t.Setenv("INVITATION_TTL", "soon")

	_, err := NewPolicyHolder(Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestPolicyFileRejectsUnknownDemotion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  employer_demotion: never\n"), 0o600))

	_, err := NewPolicyHolder(Config{PolicyFile: path}, zap.NewNop())
	assert.Error(t, err)
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var holder *PolicyHolder
	assert.Equal(t, DefaultPolicy(), holder.Get())
}
