package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "REPAIRBENCH_"

// Extractor kinds accepted under [extractors.<language>].
const (
	KindTool       = "tool"
	KindRaw        = "raw"
	KindTreeSitter = "treesitter"
)

type General struct {
	Workers       int    `koanf:"workers"`
	WorkdirPrefix string `koanf:"workdir_prefix"`
	WorkdirRoot   string `koanf:"workdir_root"`
	LogLevel      string `koanf:"log_level"`
	LogPretty     bool   `koanf:"log_pretty"`
}

type Extractor struct {
	Kind      string `koanf:"kind"`
	Command   string `koanf:"command"`
	LineArg   string `koanf:"line_arg"`
	MethodArg string `koanf:"method_arg"`
}

type Tests struct {
	PassMarkers []string `koanf:"pass_markers"`
	FailMarkers []string `koanf:"fail_markers"`
}

type AI struct {
	Provider    string  `koanf:"provider"`
	Endpoint    string  `koanf:"endpoint"`
	Model       string  `koanf:"model"`
	Token       string  `koanf:"token"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`
}

type Output struct {
	Path string `koanf:"path"`
}

// Config represents the application configuration
type Config struct {
	General    General              `koanf:"general"`
	Extractors map[string]Extractor `koanf:"extractors"`
	Tests      Tests                `koanf:"tests"`
	AI         AI                   `koanf:"ai"`
	Output     Output               `koanf:"output"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"general.workers":        4,
		"general.workdir_prefix": "repair-bench",
		"general.log_level":      "info",
		"general.log_pretty":     false,

		"extractors.java.kind":       KindRaw,
		"extractors.python.kind":     KindRaw,
		"extractors.javascript.kind": KindTreeSitter,

		"tests.pass_markers": []string{"OK", "passed", "BUILD SUCCESSFUL"},
		"tests.fail_markers": []string{"FAILED", "failed", "BUILD FAILED"},

		"ai.provider":    "openrouter",
		"ai.endpoint":    "https://openrouter.ai/api/v1",
		"ai.temperature": 0.0,
		"ai.max_tokens":  4096,

		"output.path": "records.jsonl",
	}
}

// LoadConfig layers defaults, a TOML file and REPAIRBENCH_ environment
// variables, in that order.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./repair-bench.toml", "$HOME/.repair-bench.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// REPAIRBENCH_GENERAL_LOG_LEVEL -> general.log_level
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig writes a sample configuration file.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# repair-bench configuration

[general]
workers = 4
workdir_prefix = "repair-bench"
log_level = "info"

[extractors.java]
kind = "tool"
command = "java -jar code-extractor.jar {file}"
line_arg = "--line {line}"
method_arg = "--method {method}"

[extractors.python]
kind = "raw"

[extractors.javascript]
kind = "treesitter"

[tests]
pass_markers = ["OK", "passed"]
fail_markers = ["FAILED"]

[ai]
provider = "openrouter"
endpoint = "https://openrouter.ai/api/v1"
model = "openai/gpt-4o-mini"
token = "your-api-token"

[output]
path = "records.jsonl"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.General.Workers <= 0 {
		return fmt.Errorf("general.workers must be positive, got %d", config.General.Workers)
	}

	for tag, ex := range config.Extractors {
		switch ex.Kind {
		case KindTool:
			if strings.TrimSpace(ex.Command) == "" {
				return fmt.Errorf("extractor %s: command is required for kind %q", tag, ex.Kind)
			}
		case KindRaw, KindTreeSitter:
		default:
			return fmt.Errorf("extractor %s: unknown kind %q", tag, ex.Kind)
		}
	}

	return nil
}
