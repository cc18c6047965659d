package model

// ----------------------------------------------------
// ================ Config ================

// LogConfig controls the global logger.
type LogConfig struct {
	Level      string `yaml:"level" envconfig:"LOG_LEVEL" default:"info"`
	Format     string `yaml:"format" envconfig:"LOG_FORMAT" default:"console"`
	Output     string `yaml:"output" envconfig:"LOG_OUTPUT" default:"stderr"`
	TimeFormat string `yaml:"time_format" envconfig:"LOG_TIME_FORMAT" default:"rfc3339"`
}

// ServerConfig points the client at a ComfyUI server. Environment values
// override whatever config.yaml carries.
type ServerConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"COMFY_SERVER_URL"`
}
