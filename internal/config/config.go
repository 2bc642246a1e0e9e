package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Dashboard
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	MaxSessions int    `mapstructure:"max_sessions" yaml:"max_sessions"`

	// Charts
	ChartWidth  int `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int `mapstructure:"chart_height" yaml:"chart_height"`
	// DisplayRows is how many cleaned rows the CLI prints and charts.
	DisplayRows int `mapstructure:"display_rows" yaml:"display_rows"`

	// Training
	ModelPath           string   `mapstructure:"model_path" yaml:"model_path"`
	LabelColumn         string   `mapstructure:"label_column" yaml:"label_column"`
	CategoricalFeatures []string `mapstructure:"categorical_features" yaml:"categorical_features"`
	NEstimators         int      `mapstructure:"n_estimators" yaml:"n_estimators"`
	TestSize            float64  `mapstructure:"test_size" yaml:"test_size"`
	RandomState         int64    `mapstructure:"random_state" yaml:"random_state"`
}

// Dir returns ~/.cardash.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".cardash"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.cardash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied on top
// by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CARDASH")
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8050")
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("max_sessions", 64)
	v.SetDefault("chart_width", 1000)
	v.SetDefault("chart_height", 550)
	v.SetDefault("display_rows", 50)
	v.SetDefault("model_path", "car_brand_model.gob")
	v.SetDefault("label_column", "brand")
	v.SetDefault("categorical_features", []string{"fuel_type", "transmission"})
	v.SetDefault("n_estimators", 150)
	v.SetDefault("test_size", 0.2)
	v.SetDefault("random_state", 42)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read; an explicit file that exists must parse
	if err := v.ReadInConfig(); err != nil && cfgFile != "" {
		if _, statErr := os.Stat(cfgFile); statErr == nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
