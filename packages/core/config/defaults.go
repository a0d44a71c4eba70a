package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:     30000, // 30 seconds
		ValidateSSL: BoolPtr(true),
		Driver:      "emulated",
		Headless:    BoolPtr(true),
		EnvPrefix:   "APITEST_VAR_",
		LogLevel:    "warn",
		NoColor:     BoolPtr(false),
	}
}
