// Package config loads agent settings with the precedence
// defaults < agent.yaml < environment, and bootstraps the on-disk layout
// (workspace/, outputs/, reports/, logs/, workspace/tmp/).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultModel         = "gpt-4o-mini"
	DefaultScriptTimeout = 120
	MinScriptTimeout     = 1
	MaxScriptTimeout     = 3600
	MinDepth             = 1
	MaxDepth             = 25
)

var defaultYAML = []byte(`
root_dir: ""
model: ""
auto_confirm: true
dry_run: false
assume_defaults: true
verbose: false
depth: 1
script_timeout_seconds: 120
`)

// Settings is the process-scoped configuration. It is constructed once per
// CLI invocation (or REPL session) and read-only afterwards.
type Settings struct {
	RootDir      string `koanf:"root_dir"`
	WorkspaceDir string `koanf:"-"`
	OutputsDir   string `koanf:"-"`
	ReportsDir   string `koanf:"-"`
	LogsDir      string `koanf:"-"`
	TmpDir       string `koanf:"-"`

	OpenAIAPIKey  string `koanf:"openai_api_key"`
	OpenAIBaseURL string `koanf:"openai_base_url"`
	Model         string `koanf:"model"`

	AutoConfirm    bool `koanf:"auto_confirm"`
	DryRun         bool `koanf:"dry_run"`
	AssumeDefaults bool `koanf:"assume_defaults"`
	Verbose        bool `koanf:"verbose"`

	Depth                int `koanf:"depth"`
	ScriptTimeoutSeconds int `koanf:"script_timeout_seconds"`
}

// ScriptTimeout returns the per-step timeout as a duration.
func (s *Settings) ScriptTimeout() time.Duration {
	return time.Duration(s.ScriptTimeoutSeconds) * time.Second
}

// Overrides are CLI flag values applied on top of the loaded settings. Nil
// pointers mean "not set on the command line".
type Overrides struct {
	AutoConfirm    *bool
	DryRun         *bool
	AssumeDefaults *bool
	Verbose        *bool
	Model          string
	Depth          *int
	ScriptTimeout  *int
}

// Load reads .env, agent.yaml (if present in the root), and the environment,
// applies CLI overrides, validates bounds, and creates the directory layout.
func Load(overrides Overrides) (*Settings, error) {
	// .env never overrides already-exported variables.
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaultYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	root := k.String("root_dir")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		root = wd
	}

	if content, err := os.ReadFile(filepath.Join(root, "agent.yaml")); err == nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse agent.yaml: %w", err)
		}
	}

	// OPENAI_API_KEY -> openai_api_key, AGENT_DEPTH -> depth, etc.
	if err := k.Load(env.Provider("", ".", envToKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if s.RootDir == "" {
		s.RootDir = root
	}

	applyOverrides(&s, overrides)

	if s.Model == "" {
		s.Model = DefaultModel
	}
	if s.Depth < MinDepth || s.Depth > MaxDepth {
		return nil, fmt.Errorf("depth %d out of range [%d, %d]", s.Depth, MinDepth, MaxDepth)
	}
	if s.ScriptTimeoutSeconds < MinScriptTimeout || s.ScriptTimeoutSeconds > MaxScriptTimeout {
		return nil, fmt.Errorf("script timeout %ds out of range [%d, %d]", s.ScriptTimeoutSeconds, MinScriptTimeout, MaxScriptTimeout)
	}

	s.WorkspaceDir = filepath.Join(s.RootDir, "workspace")
	s.OutputsDir = filepath.Join(s.RootDir, "outputs")
	s.ReportsDir = filepath.Join(s.RootDir, "reports")
	s.LogsDir = filepath.Join(s.RootDir, "logs")
	s.TmpDir = filepath.Join(s.WorkspaceDir, "tmp")
	for _, d := range []string{s.WorkspaceDir, s.OutputsDir, s.ReportsDir, s.LogsDir, s.TmpDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", d, err)
		}
	}
	return &s, nil
}

func applyOverrides(s *Settings, o Overrides) {
	if o.AutoConfirm != nil {
		s.AutoConfirm = *o.AutoConfirm
	}
	if o.DryRun != nil {
		s.DryRun = *o.DryRun
	}
	if o.AssumeDefaults != nil {
		s.AssumeDefaults = *o.AssumeDefaults
	}
	if o.Verbose != nil {
		s.Verbose = *o.Verbose
	}
	if o.Model != "" {
		s.Model = o.Model
	}
	if o.Depth != nil {
		s.Depth = *o.Depth
	}
	if o.ScriptTimeout != nil {
		s.ScriptTimeoutSeconds = *o.ScriptTimeout
	}
}

// envToKey maps environment variable names onto settings keys. Only the
// variables the agent understands are mapped; everything else is dropped so
// unrelated environment noise cannot leak into the config tree.
func envToKey(name string) string {
	switch name {
	case "OPENAI_API_KEY":
		return "openai_api_key"
	case "OPENAI_BASE_URL":
		return "openai_base_url"
	case "OPENAI_MODEL":
		return "model"
	case "AGENT_ROOT_DIR":
		return "root_dir"
	case "AGENT_AUTO_CONFIRM":
		return "auto_confirm"
	case "AGENT_DRY_RUN":
		return "dry_run"
	case "AGENT_ASSUME_DEFAULTS":
		return "assume_defaults"
	case "AGENT_VERBOSE":
		return "verbose"
	case "AGENT_DEPTH":
		return "depth"
	case "AGENT_SCRIPT_TIMEOUT":
		return "script_timeout_seconds"
	}
	return ""
}
