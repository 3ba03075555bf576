// Package config loads the bot's settings from defaults, an optional
// callbot.toml, an optional .env file and the environment, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = "callbot"
	configType = "toml"
	dotEnvFile = ".env"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Twilio   TwilioConfig   `mapstructure:"twilio"`
	Server   ServerConfig   `mapstructure:"server"`
	Dialogue DialogueConfig `mapstructure:"dialogue"`
	LogLevel string         `mapstructure:"log_level"`
}

type LLMConfig struct {
	Provider     string  `mapstructure:"provider"`
	Model        string  `mapstructure:"model"`
	Temperature  float64 `mapstructure:"temperature"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	GroqAPIKey   string  `mapstructure:"groq_api_key"`
	OpenAIAPIKey string  `mapstructure:"openai_api_key"`
	GeminiAPIKey string  `mapstructure:"gemini_api_key"`
}

// APIKey returns the key for the selected provider.
func (c LLMConfig) APIKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderGemini:
		return c.GeminiAPIKey
	default:
		return c.GroqAPIKey
	}
}

type SpeechConfig struct {
	DeepgramAPIKey string `mapstructure:"deepgram_api_key"`
	Voice          string `mapstructure:"voice"`
	Language       string `mapstructure:"language"`
	STTModel       string `mapstructure:"stt_model"`
}

type TwilioConfig struct {
	AccountSID  string `mapstructure:"account_sid"`
	AuthToken   string `mapstructure:"auth_token"`
	PhoneNumber string `mapstructure:"phone_number"`
}

type ServerConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	WebsocketPath string `mapstructure:"websocket_path"`
	// PublicURL is where Twilio can reach this server, e.g. an ngrok URL.
	PublicURL string `mapstructure:"public_url"`
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DialogueConfig struct {
	AudioThresholdBytes int `mapstructure:"audio_threshold_bytes"`
	HistoryLimit        int `mapstructure:"history_limit"`
}

type setting struct {
	key          string
	defaultValue any
	envNames     []string
}

var settings = []setting{
	{"llm.provider", ProviderGroq, []string{"LLM_PROVIDER"}},
	{"llm.model", "", []string{"LLM_MODEL", "GROQ_MODEL"}},
	{"llm.temperature", 0.8, []string{"TEMPERATURE"}},
	{"llm.max_tokens", 300, []string{"MAX_RESPONSE_TOKENS"}},
	{"llm.groq_api_key", "", []string{"GROQ_API_KEY"}},
	{"llm.openai_api_key", "", []string{"OPENAI_API_KEY"}},
	{"llm.gemini_api_key", "", []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}},

	{"speech.deepgram_api_key", "", []string{"DEEPGRAM_API_KEY"}},
	{"speech.voice", "aura-2-apollo-en", []string{"DEEPGRAM_VOICE"}},
	{"speech.language", "en-US", []string{"STT_LANGUAGE"}},
	{"speech.stt_model", "nova-3", []string{"DEEPGRAM_STT_MODEL"}},

	{"twilio.account_sid", "", []string{"TWILIO_ACCOUNT_SID"}},
	{"twilio.auth_token", "", []string{"TWILIO_AUTH_TOKEN"}},
	{"twilio.phone_number", "", []string{"TWILIO_PHONE_NUMBER"}},

	{"server.host", "localhost", []string{"HOST"}},
	{"server.port", 8000, []string{"PORT"}},
	{"server.websocket_path", "/media-stream", []string{"WEBSOCKET_PATH"}},
	{"server.public_url", "", []string{"PUBLIC_URL"}},

	{"dialogue.audio_threshold_bytes", 1000, []string{"AUDIO_THRESHOLD_BYTES"}},
	{"dialogue.history_limit", 20, []string{"HISTORY_LIMIT"}},

	{"log_level", "info", []string{"LOG_LEVEL"}},
}

// Load reads the configuration. configFile may be empty, in which case
// callbot.toml is looked up in dir; dir also holds the optional .env file.
func Load(v *viper.Viper, dir, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	for _, s := range settings {
		v.SetDefault(s.key, s.defaultValue)
		if err := v.BindEnv(append([]string{s.key}, s.envNames...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", s.key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := applyDotEnv(v, filepath.Join(dir, dotEnvFile)); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Server.WebsocketPath = "/" + strings.TrimLeft(cfg.Server.WebsocketPath, "/")
	cfg.Server.PublicURL = strings.TrimRight(cfg.Server.PublicURL, "/")
	return &cfg, nil
}

// applyDotEnv fills settings from a .env file for every variable the real
// environment does not set. A missing file is fine.
func applyDotEnv(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	dotEnv := viper.New()
	dotEnv.SetConfigFile(path)
	dotEnv.SetConfigType("env")
	if err := dotEnv.ReadInConfig(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for _, s := range settings {
		if slices.ContainsFunc(s.envNames, isSetInEnv) {
			continue
		}
		for _, name := range s.envNames {
			// The env format lowercases keys.
			if key := strings.ToLower(name); dotEnv.IsSet(key) {
				v.Set(s.key, dotEnv.Get(key))
				break
			}
		}
	}
	return nil
}

func isSetInEnv(name string) bool {
	_, ok := os.LookupEnv(name)
	return ok
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Requirement names a group of settings a command cannot run without.
type Requirement int

const (
	RequireLLM Requirement = iota
	RequireSpeech
	RequireTwilio
	RequireCaller
	RequirePublicURL
)

// Validate checks the settings behind each requirement and reports every
// missing one at once.
func (c *Config) Validate(requirements ...Requirement) error {
	var errs []error
	missing := func(name string) { errs = append(errs, fmt.Errorf("%s is required", name)) }

	for _, requirement := range requirements {
		switch requirement {
		case RequireLLM:
			switch c.LLM.Provider {
			case ProviderGroq, ProviderOpenAI, ProviderGemini:
				if c.LLM.APIKey() == "" {
					missing(strings.ToUpper(c.LLM.Provider) + "_API_KEY")
				}
			default:
				errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider))
			}
			if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
				errs = append(errs, fmt.Errorf("TEMPERATURE must be between 0 and 2, got %v", c.LLM.Temperature))
			}
			if c.LLM.MaxTokens <= 0 {
				errs = append(errs, fmt.Errorf("MAX_RESPONSE_TOKENS must be positive, got %d", c.LLM.MaxTokens))
			}

		case RequireSpeech:
			if c.Speech.DeepgramAPIKey == "" {
				missing("DEEPGRAM_API_KEY")
			}
			if c.Dialogue.AudioThresholdBytes <= 0 {
				errs = append(errs, fmt.Errorf("AUDIO_THRESHOLD_BYTES must be positive, got %d", c.Dialogue.AudioThresholdBytes))
			}

		case RequireTwilio:
			if c.Twilio.AccountSID == "" {
				missing("TWILIO_ACCOUNT_SID")
			}
			if c.Twilio.AuthToken == "" {
				missing("TWILIO_AUTH_TOKEN")
			}

		case RequireCaller:
			if c.Twilio.PhoneNumber == "" {
				missing("TWILIO_PHONE_NUMBER")
			}

		case RequirePublicURL:
			if c.Server.PublicURL == "" {
				missing("PUBLIC_URL")
			}
		}
	}
	return errors.Join(errs...)
}
