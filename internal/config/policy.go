package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	EmployerDemotionPreserveVerified = "preserve_verified"
	EmployerDemotionStrict           = "strict"
)

// Policy carries the tunable relationship rules. Values can be overridden
// from an optional policy file and are reloaded when the file changes.
type Policy struct {
	InvitationTTL     time.Duration `mapstructure:"invitation_ttl"`
	MaxInvitationText int           `mapstructure:"max_invitation_text"`
	MaxMessageLength  int           `mapstructure:"max_message_length"`
	EmployerDemotion  string        `mapstructure:"employer_demotion"`
	RestoreWindow     time.Duration `mapstructure:"restore_window"`
}

func DefaultPolicy() Policy {
	return Policy{
		InvitationTTL:     14 * 24 * time.Hour,
		MaxInvitationText: 2000,
		MaxMessageLength:  4000,
		EmployerDemotion:  EmployerDemotionPreserveVerified,
		RestoreWindow:     5 * time.Second,
	}
}

type PolicyHolder struct {
	current atomic.Value // holds Policy
}

// StaticPolicy wraps a fixed policy, mostly for tests.
func StaticPolicy(p Policy) *PolicyHolder {
	holder := &PolicyHolder{}
	holder.current.Store(p)
	return holder
}

// policyEnv maps each policy key to the environment variables that override
// it. The short names come first; the prefixed ones follow viper's key layout.
var policyEnv = map[string][]string{
	"policy.invitation_ttl":      {"INVITATION_TTL", "INTERNLINK_POLICY_INVITATION_TTL"},
	"policy.max_invitation_text": {"MAX_INVITATION_TEXT", "INTERNLINK_POLICY_MAX_INVITATION_TEXT"},
	"policy.max_message_length":  {"MAX_MESSAGE_LENGTH", "INTERNLINK_POLICY_MAX_MESSAGE_LENGTH"},
	"policy.employer_demotion":   {"STAGE_EMPLOYER_DEMOTION", "INTERNLINK_POLICY_EMPLOYER_DEMOTION"},
	"policy.restore_window":      {"RESTORE_WINDOW", "INTERNLINK_POLICY_RESTORE_WINDOW"},
}

func NewPolicyHolder(cfg Config, log *zap.Logger) (*PolicyHolder, error) {
	v := viper.New()
	defaults := DefaultPolicy()
	v.SetDefault("policy.invitation_ttl", defaults.InvitationTTL)
	v.SetDefault("policy.max_invitation_text", defaults.MaxInvitationText)
	v.SetDefault("policy.max_message_length", defaults.MaxMessageLength)
	v.SetDefault("policy.employer_demotion", defaults.EmployerDemotion)
	v.SetDefault("policy.restore_window", defaults.RestoreWindow)

	for key, names := range policyEnv {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind policy env %s: %w", key, err)
		}
	}

	if cfg.PolicyFile != "" {
		v.SetConfigFile(cfg.PolicyFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read policy file: %w", err)
		}
	}

	policy, err := decodePolicy(v)
	if err != nil {
		return nil, err
	}

	holder := StaticPolicy(policy)
	if cfg.PolicyFile == "" {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodePolicy(v)
		if err != nil {
			log.Warn("policy reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *PolicyHolder) Get() Policy {
	if h == nil {
		return DefaultPolicy()
	}
	p, ok := h.current.Load().(Policy)
	if !ok {
		return DefaultPolicy()
	}
	return p
}

// decodePolicy reads every key on its own so that defaults, file values and
// environment overrides are merged per key.
func decodePolicy(v *viper.Viper) (Policy, error) {
	ttl, err := cast.ToDurationE(v.Get("policy.invitation_ttl"))
	if err != nil {
		return Policy{}, fmt.Errorf("policy.invitation_ttl: %w", err)
	}
	window, err := cast.ToDurationE(v.Get("policy.restore_window"))
	if err != nil {
		return Policy{}, fmt.Errorf("policy.restore_window: %w", err)
	}
	maxText, err := cast.ToIntE(v.Get("policy.max_invitation_text"))
	if err != nil {
		return Policy{}, fmt.Errorf("policy.max_invitation_text: %w", err)
	}
	maxMessage, err := cast.ToIntE(v.Get("policy.max_message_length"))
	if err != nil {
		return Policy{}, fmt.Errorf("policy.max_message_length: %w", err)
	}

	p := Policy{
		InvitationTTL:     ttl,
		MaxInvitationText: maxText,
		MaxMessageLength:  maxMessage,
		EmployerDemotion:  strings.ToLower(strings.TrimSpace(v.GetString("policy.employer_demotion"))),
		RestoreWindow:     window,
	}
	if err := validatePolicy(p); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func validatePolicy(p Policy) error {
	if p.InvitationTTL <= 0 {
		return errors.New("policy.invitation_ttl must be positive")
	}
	if p.MaxMessageLength <= 0 || p.MaxInvitationText <= 0 {
		return errors.New("policy message limits must be positive")
	}
	if p.RestoreWindow < 0 {
		return errors.New("policy.restore_window cannot be negative")
	}
	switch p.EmployerDemotion {
	case EmployerDemotionPreserveVerified, EmployerDemotionStrict:
	default:
		return fmt.Errorf("unknown policy.employer_demotion %q", p.EmployerDemotion)
	}
	return nil
}
