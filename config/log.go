package config

type LogConfig struct {
	LogLevel   string `json:"logLevel"`
	LogHandler string `json:"logHandler"`
}

func NewLogConfig() *LogConfig {
	return &LogConfig{
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogHandler: getEnv("LOG_HANDLER", "default"),
	}
}
