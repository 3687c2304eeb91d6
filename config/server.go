package config

type ServerConfig struct {
	Port            int    `json:"port"`
	SessionDBPath   string `json:"sessionDbPath"`
	CollaboratorURL string `json:"collaboratorUrl"`
}

func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            8100,
		SessionDBPath:   getEnv("COUNSEL_SESSION_DB_PATH", "counsel.db"),
		CollaboratorURL: getEnv("COUNSEL_COLLABORATOR_URL", ""),
	}
}
