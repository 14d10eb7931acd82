package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name: "valid sqlite config",
			config: Config{
				Port:        "8080",
				GinMode:     "release",
				DataBackend: "sqlite",
				DBPath:      "./test.db",
				JWTSecret:   "0123456789abcdef",
				JWTTTL:      24 * time.Hour,
			},
			wantErr: false,
		},
		{
			name: "valid memory config",
			config: Config{
				Port:        "8080",
				GinMode:     "release",
				DataBackend: "memory",
				JWTSecret:   "0123456789abcdef",
				JWTTTL:      time.Hour,
			},
			wantErr: false,
		},
		{
			name: "non-numeric port",
			config: Config{
				Port:        "abc",
				GinMode:     "release",
				DataBackend: "memory",
				JWTSecret:   "0123456789abcdef",
				JWTTTL:      time.Hour,
			},
			wantErr:     true,
			errorString: "invalid port 'abc'",
		},
		{
			name: "port out of range",
			config: Config{
				Port:        "70000",
				GinMode:     "release",
				DataBackend: "memory",
				JWTSecret:   "0123456789abcdef",
				JWTTTL:      time.Hour,
			},
			wantErr:     true,
			errorString: "invalid port 70000",
		},
		{
			name: "unknown backend",
			config: Config{
				Port:        "8080",
				GinMode:     "release",
				DataBackend: "postgres",
				JWTSecret:   "0123456789abcdef",
				JWTTTL:      time.Hour,
			},
			wantErr:     true,
			errorString: "invalid data backend 'postgres'",
		},
		{
			name: "sqlite backend without db path",
			config: Config{
				Port:        "8080",
				GinMode:     "release",
				DataBackend: "sqlite",
				DBPath:      "",
				JWTSecret:   "0123456789abcdef",
				JWTTTL:      time.Hour,
			},
			wantErr:     true,
			errorString: "database path cannot be empty",
		},
		{
			name: "missing JWT secret",
			config: Config{
				Port:        "8080",
				GinMode:     "release",
				DataBackend: "memory",
				JWTSecret:   "",
				JWTTTL:      time.Hour,
			},
			wantErr:     true,
			errorString: "JWT_SECRET must be set",
		},
		{
			name: "short JWT secret",
			config: Config{
				Port:        "8080",
				GinMode:     "release",
				DataBackend: "memory",
				JWTSecret:   "short",
				JWTTTL:      time.Hour,
			},
			wantErr:     true,
			errorString: "at least 16 characters",
		},
		{
			name: "JWT TTL too short",
			config: Config{
				Port:        "8080",
				GinMode:     "release",
				DataBackend: "memory",
				JWTSecret:   "0123456789abcdef",
				JWTTTL:      time.Second,
			},
			wantErr:     true,
			errorString: "must be at least 1 minute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Validate() error = nil, want error containing %q", tt.errorString)
				}
				if !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Validate() error = %v, want error containing %q", err, tt.errorString)
				}
			} else if err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	keys := []string{"PORT", "GIN_MODE", "DATA_BACKEND", "DB_PATH", "JWT_SECRET", "JWT_TTL", "LOG_LEVEL"}
	saved := make(map[string]string, len(keys))
	for _, k := range keys {
		saved[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	defer func() {
		for k, v := range saved {
			if v != "" {
				os.Setenv(k, v)
			} else {
				os.Unsetenv(k)
			}
		}
	}()

	t.Run("defaults", func(t *testing.T) {
		cfg := Load()
		if cfg.Port != "8080" {
			t.Errorf("Port = %v, want 8080", cfg.Port)
		}
		if cfg.DataBackend != "sqlite" {
			t.Errorf("DataBackend = %v, want sqlite", cfg.DataBackend)
		}
		if cfg.JWTTTL != 24*time.Hour {
			t.Errorf("JWTTTL = %v, want 24h", cfg.JWTTTL)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		os.Setenv("PORT", "9090")
		os.Setenv("DATA_BACKEND", "memory")
		os.Setenv("JWT_TTL", "45m")

		cfg := Load()
		if cfg.Port != "9090" {
			t.Errorf("Port = %v, want 9090", cfg.Port)
		}
		if cfg.DataBackend != "memory" {
			t.Errorf("DataBackend = %v, want memory", cfg.DataBackend)
		}
		if cfg.JWTTTL != 45*time.Minute {
			t.Errorf("JWTTTL = %v, want 45m", cfg.JWTTTL)
		}
	})

	t.Run("invalid duration falls back to default", func(t *testing.T) {
		os.Setenv("JWT_TTL", "not-a-duration")
		cfg := Load()
		if cfg.JWTTTL != 24*time.Hour {
			t.Errorf("JWTTTL = %v, want 24h default", cfg.JWTTTL)
		}
	})
}
