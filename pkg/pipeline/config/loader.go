package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides: TUTORGEN_LLM_MODEL
// overrides llm.model.
const EnvPrefix = "TUTORGEN"

// NewViper returns a viper instance with every known key's default
// registered and environment overrides enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, val := range defaultValues() {
		v.SetDefault(key, val)
	}
	return v
}

// BindFlags binds command-line flags to configuration keys.
// Flag names map to keys by replacing "-" with "_" (max-size -> max_size).
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

// Load reads the optional config file at path into v and returns the
// merged view of file, environment, flags, and defaults.
// An empty path skips file loading.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		switch ext {
		case ".yaml", ".yml", ".json":
		default:
			return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
		}

		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}
	return New(v.AllSettings()), nil
}
