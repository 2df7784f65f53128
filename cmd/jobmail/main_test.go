package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobmail-sync/internal/config"
	"github.com/jonathan/jobmail-sync/internal/schemas"
	"github.com/jonathan/jobmail-sync/internal/types"
)

// TestMain runs before all tests and loads .env if available
func TestMain(m *testing.M) {
	_ = godotenv.Load()
	os.Exit(m.Run())
}

const (
	appliedEmail = `Subject: Your application was sent to Acme Corp
From: LinkedIn <jobs-noreply@linkedin.com>
Date: Tue, 04 Mar 2025 10:15:00 +0200

Your application was sent to Acme Corp
Backend Engineer
Acme Corp · Tel Aviv, Israel (Hybrid)
https://www.linkedin.com/comm/jobs/view/4213556789?trk=abc`

	rejectedEmail = `Subject: Update on your application
From: Globex <careers@globex.example>

Thank you for your interest. Unfortunately, we decided to move forward with other candidates.
https://www.linkedin.com/jobs/view/5550001/`
)

func writeSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-03-04_10-15 - applied.txt"), []byte(appliedEmail), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-03-05_09-00 - rejected.txt"), []byte(rejectedEmail), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
		check func(t *testing.T, cfg config.Config)
	}{
		{
			name:  "unset flags keep config values",
			flags: map[string]string{},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "/mail", cfg.SourceDir)
				assert.Equal(t, "sqlite", cfg.DBDriver)
				assert.True(t, cfg.TranslateEnabled())
			},
		},
		{
			name:  "source and db",
			flags: map[string]string{"source": "/other", "db": "/tmp/x.db"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "/other", cfg.SourceDir)
				assert.Equal(t, "/tmp/x.db", cfg.DBPath)
			},
		},
		{
			name:  "db url selects postgres",
			flags: map[string]string{"db-url": "postgres://u:p@localhost/jobs"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "postgres", cfg.DBDriver)
				assert.Equal(t, "postgres://u:p@localhost/jobs", cfg.DatabaseURL)
			},
		},
		{
			name:  "explicit driver wins over db url",
			flags: map[string]string{"db-url": "postgres://u:p@localhost/jobs", "db-driver": "memory"},
			check: func(t *testing.T, cfg config.Config) {
				assert.Equal(t, "memory", cfg.DBDriver)
			},
		},
		{
			name:  "no-translate turns translation off",
			flags: map[string]string{"no-translate": "true", "workers": "3"},
			check: func(t *testing.T, cfg config.Config) {
				assert.False(t, cfg.TranslateEnabled())
				assert.Equal(t, 3, cfg.Workers)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
			for name, value := range tt.flags {
				require.NoError(t, cmd.Flags().Set(name, value))
			}
			t.Cleanup(func() {
				for name := range tt.flags {
					f := cmd.Flags().Lookup(name)
					_ = f.Value.Set(f.DefValue)
					f.Changed = false
				}
			})

			enabled := true
			cfg := config.Config{SourceDir: "/mail", DBDriver: "sqlite", Translate: &enabled}
			applyFlags(cmd, &cfg)
			tt.check(t, cfg)
		})
	}
}

func TestSyncAndStatusCommands(t *testing.T) {
	source := writeSource(t)
	dbPath := filepath.Join(t.TempDir(), "jobmail.db")
	common := []string{"--offline", "--db-driver", "sqlite", "--db", dbPath, "--source", source}

	out, err := execute(t, append([]string{"sync"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "SYNC SUMMARY")
	assert.Contains(t, out, "Created:    2")

	out, err = execute(t, append([]string{"sync"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Created:    0")
	assert.Contains(t, out, "Unchanged:  2")

	out, err = execute(t, append([]string{"set-status", "job::4213556789", "interview"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "job::4213556789: Interview")

	out, err = execute(t, append([]string{"list", "interview"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Interview (1)")
	assert.Contains(t, out, "job::4213556789")

	out, err = execute(t, append([]string{"status"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "STATUS COUNTS")
	assert.Contains(t, out, "Total            2")

	out, err = execute(t, append([]string{"show", "job::5550001"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Rejected")
}

func TestSetStatusCommand_InvalidStatus(t *testing.T) {
	_, err := execute(t, "set-status", "job::1", "hired", "--offline", "--db-driver", "memory")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidStatus)
}

func TestResetCommand_RequiresForce(t *testing.T) {
	_, err := execute(t, "reset", "--offline", "--db-driver", "memory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
}

func TestParseCommand(t *testing.T) {
	source := writeSource(t)
	outPath := filepath.Join(t.TempDir(), "parsed_jobs.json")

	out, err := execute(t, "parse", source, "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 2 parsed emails")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var parsed []types.ParsedOpportunity
	require.NoError(t, json.Unmarshal(data, &parsed))
	require.Len(t, parsed, 2)
	assert.Equal(t, "Acme Corp", parsed[0].Company)
	assert.Equal(t, types.EmailApplied, parsed[0].EmailType)
	assert.Equal(t, types.StageRejected, parsed[1].Stage)
}

func TestWriteParsedExport_EmptyIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeParsedExport(path, []types.ParsedOpportunity{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "parsed_jobs.json")
	require.NoError(t, writeParsedExport(good, []types.ParsedOpportunity{
		{EmailType: types.EmailApplied, Stage: types.StageApplied, SourceFile: "/mail/a.txt", Company: "Acme Corp"},
	}))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"email_type": "applied", "stage": "Hired", "source_file": "/a.txt"}]`), 0o644))

	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{name: "embedded schema accepts export", args: []string{"validate", good, "--schema="}},
		{name: "embedded schema rejects unknown stage", args: []string{"validate", bad, "--schema="}, wantErr: true},
		{name: "schema file accepts export", args: []string{"validate", good, "--schema", "../../schemas/parsed_opportunities.schema.json"}},
		{name: "schema file rejects unknown stage", args: []string{"validate", bad, "--schema", "../../schemas/parsed_opportunities.schema.json"}, wantErr: true},
		{name: "missing file", args: []string{"validate", filepath.Join(dir, "nope.json"), "--schema="}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, "is valid")
		})
	}
}

func TestValidateCommand_ReportsFieldErrors(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"email_type": "applied", "stage": "Hired", "source_file": "/a.txt"}]`), 0o644))

	_, err := execute(t, "validate", bad, "--schema=")
	var validationErr *schemas.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "0.stage", validationErr.Errors[0].Field)
}
