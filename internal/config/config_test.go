package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	t.Run("missing file is empty config", func(t *testing.T) {
		cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, &File{}, cfg)
	})

	t.Run("parses yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := `
environment: production
production_url: https://tutor.example.com
session_dir: /tmp/aitutor
timeout: 45s
google:
  client_id: cid
  client_secret: secret
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.Environment)
		assert.Equal(t, "https://tutor.example.com", cfg.ProductionURL)
		assert.Equal(t, "/tmp/aitutor", cfg.SessionDir)
		assert.Equal(t, "45s", cfg.Timeout)
		assert.Equal(t, "cid", cfg.Google.ClientID)
		assert.Equal(t, "secret", cfg.Google.ClientSecret)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("environment: [unterminated"), 0600))

		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AITUTOR_TEST_DOTENV=from-file\n"), 0600))

	t.Setenv("AITUTOR_TEST_DOTENV", "")
	os.Unsetenv("AITUTOR_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("AITUTOR_TEST_DOTENV"))
}

func TestResolve(t *testing.T) {
	prodFile := &File{ProductionURL: "https://tutor.example.com/"}

	tests := []struct {
		name    string
		flags   Overrides
		file    *File
		wantURL string
		wantEnv string
		wantErr error
	}{
		{
			name:    "defaults to local",
			wantURL: LocalURL,
			wantEnv: EnvironmentLocal,
		},
		{
			name:    "explicit api url wins",
			flags:   Overrides{APIURL: "https://override.example.com/", Environment: EnvironmentProduction},
			file:    prodFile,
			wantURL: "https://override.example.com",
			wantEnv: EnvironmentProduction,
		},
		{
			name:    "environment flag selects production",
			flags:   Overrides{Environment: EnvironmentProduction},
			file:    prodFile,
			wantURL: "https://tutor.example.com",
			wantEnv: EnvironmentProduction,
		},
		{
			name:    "environment flag beats file api url",
			flags:   Overrides{Environment: EnvironmentLocal},
			file:    &File{APIURL: "https://file.example.com"},
			wantURL: LocalURL,
			wantEnv: EnvironmentLocal,
		},
		{
			name:    "file api url",
			file:    &File{APIURL: "https://file.example.com"},
			wantURL: "https://file.example.com",
		},
		{
			name:    "file environment",
			file:    &File{Environment: EnvironmentProduction, ProductionURL: "https://tutor.example.com"},
			wantURL: "https://tutor.example.com",
			wantEnv: EnvironmentProduction,
		},
		{
			name:    "production without url",
			flags:   Overrides{Environment: EnvironmentProduction},
			wantErr: ErrNoProductionURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Resolve(tt.flags, tt.file)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, s.APIURL)
			assert.Equal(t, tt.wantEnv, s.Environment)
		})
	}
}

func TestResolve_unknownEnvironment(t *testing.T) {
	_, err := Resolve(Overrides{Environment: "staging"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown environment")
}

func TestResolve_precedence(t *testing.T) {
	file := &File{SessionDir: "/from/file", Timeout: "30s"}
	file.Google.ClientID = "file-client"

	s, err := Resolve(Overrides{SessionDir: "/from/flag"}, file)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", s.SessionDir)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.Equal(t, "file-client", s.GoogleClientID)

	s, err = Resolve(Overrides{Timeout: time.Minute}, file)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, s.Timeout)

	_, err = Resolve(Overrides{}, &File{Timeout: "soon"})
	require.Error(t, err)
}
