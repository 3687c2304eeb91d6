package config

import "time"

// MemoryConfig wires the dual-backed memory store. PrimaryBackend selects the
// semantic store ("remote" or "sqlite-vec"); the local sqlite keyword store is
// always the fallback.
type MemoryConfig struct {
	PrimaryBackend string        `json:"primaryBackend"`
	RemoteBaseURL  string        `json:"remoteBaseUrl"`
	RemoteAPIKey   string        `json:"-"`
	SqlitePath     string        `json:"sqlitePath"`
	VectorDim      int           `json:"vectorDim"`
	StoreTimeout   time.Duration `json:"storeTimeout"`
}

func NewMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		PrimaryBackend: getEnv("COUNSEL_MEMORY_BACKEND", "remote"),
		RemoteBaseURL:  getEnv("COUNSEL_MEMORY_URL", ""),
		RemoteAPIKey:   getEnv("COUNSEL_MEMORY_API_KEY", ""),
		SqlitePath:     getEnv("COUNSEL_MEMORY_SQLITE_PATH", "counsel-memory.db"),
		VectorDim:      1536, // text-embedding-3-small
		StoreTimeout:   getEnvDuration("COUNSEL_MEMORY_TIMEOUT", 5*time.Second),
	}
}
