/*
Package config loads run settings from a file, the environment, and flags.

# Overview

Values are resolved by viper in this order (highest wins):

 1. command-line flags bound with BindFlags
 2. TUTORGEN_* environment variables (TUTORGEN_LLM_MODEL for llm.model)
 3. the config file, if one was given (.yaml, .yml, .json)
 4. the defaults registered by NewViper

# Basic Usage

	v := config.NewViper()
	cfg, err := config.Load(v, "tutorgen.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	settings, err := config.Decode(cfg)

# Typed Access

Config wraps the merged map and extracts values with defaults.
Keys may be dotted paths into nested sections:

	timeout := cfg.Duration("llm.timeout", 5*time.Minute)
	attempts := cfg.Int("llm.retry.attempts", 3)

Environment values arrive as strings and are coerced: "3" is a valid Int,
"true" a valid Bool, and "*.ts,*.go" a valid StringSlice.

# Thread Safety

Config is safe for concurrent read access.
*/
package config
