package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WorkspacePolicy controls defaults applied to new memberships and the
// throttle on invite-code joins.
type WorkspacePolicy struct {
	JoinDefaults JoinDefaults `mapstructure:"joinDefaults"`
	JoinLimit    JoinLimit    `mapstructure:"joinLimit"`
}

// JoinDefaults are the capability flags granted to a member joining via
// invite code. Admins ignore these; their capabilities are implicit.
type JoinDefaults struct {
	CanCreateTasks    bool `mapstructure:"canCreateTasks"`
	CanCreateMeetings bool `mapstructure:"canCreateMeetings"`
}

// JoinLimit configures the token bucket guarding join attempts per user.
type JoinLimit struct {
	RatePerMinute int `mapstructure:"ratePerMinute"`
	Burst         int `mapstructure:"burst"`
}

func DefaultWorkspacePolicy() WorkspacePolicy {
	return WorkspacePolicy{
		JoinDefaults: JoinDefaults{
			CanCreateTasks:    true,
			CanCreateMeetings: false,
		},
		JoinLimit: JoinLimit{
			RatePerMinute: 10,
			Burst:         5,
		},
	}
}

// WorkspacePolicyHolder exposes the current policy and hot-reloads it when the
// backing file changes.
type WorkspacePolicyHolder struct {
	current atomic.Value // holds WorkspacePolicy
}

func NewWorkspacePolicyHolder() (*WorkspacePolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("workspace")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/syncspace/config")
	v.AddConfigPath("/etc/syncspace")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SYNCSPACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultWorkspacePolicy()
		v.SetDefault("workspace.joinDefaults", defaults.JoinDefaults)
		v.SetDefault("workspace.joinLimit", defaults.JoinLimit)
	}

	var policy WorkspacePolicy
	if err := v.UnmarshalKey("workspace", &policy); err != nil {
		return nil, err
	}
	if err := validateWorkspacePolicy(policy); err != nil {
		return nil, err
	}

	holder := &WorkspacePolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated WorkspacePolicy
		if err := v.UnmarshalKey("workspace", &updated); err != nil {
			log.Printf("[workspace-policy] reload failed: %v", err)
			return
		}
		if err := validateWorkspacePolicy(updated); err != nil {
			log.Printf("[workspace-policy] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[workspace-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticWorkspacePolicyHolder returns a holder pinned to the given policy,
// with no file watching. Intended for tests and one-shot tooling.
func NewStaticWorkspacePolicyHolder(policy WorkspacePolicy) *WorkspacePolicyHolder {
	holder := &WorkspacePolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func (h *WorkspacePolicyHolder) Get() WorkspacePolicy {
	return h.current.Load().(WorkspacePolicy)
}

func validateWorkspacePolicy(policy WorkspacePolicy) error {
	if policy.JoinLimit.RatePerMinute < 0 {
		return errors.New("workspace.joinLimit.ratePerMinute cannot be negative")
	}
	if policy.JoinLimit.Burst < 0 {
		return errors.New("workspace.joinLimit.burst cannot be negative")
	}
	return nil
}
