package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Schema             string `json:"schema"`
	Host               string `json:"host"`
	AccessKey          string `json:"access_key"`
	SecretKey          string `json:"secret_key"`
	Thread             int    `json:"thread"`
	LogLevel           string `json:"log_level"`
	ChunkSize          int64  `json:"chunk_size"`
	ResumableThreshold int64  `json:"resumable_threshold"`
	SessionDBFile      string `json:"session_db_file"`
}

func Parse(f string) (*Config, error) {
	raw, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("read file:%w", err)
	}
	c := &Config{
		Schema:             "http",
		Thread:             4,
		LogLevel:           "debug",
		ChunkSize:          256 * 1024,
		ResumableThreshold: 8 * 1024 * 1024,
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("unmarshal file:%w", err)
	}
	if len(c.SessionDBFile) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir:%w", err)
		}
		c.SessionDBFile = filepath.Join(home, ".gsup", "session.db")
	}
	return c, nil
}
