package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vigilance-engine/internal/audit"
	"vigilance-engine/internal/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestEncode(t *testing.T) {
	out, err := run(t, "encode", "hello")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hello")), got["encryptedPayload"])
	assert.NotContains(t, got, "signature")
}

func TestEncodeWithSigningSecret(t *testing.T) {
	path := writeConfig(t, "codec:\n  signing_secret: shared\n")

	out, err := run(t, "--config", path, "encode", "hello")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got["signature"], 64)
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yml"), "encode", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open config file")
}

func TestAuditCommand(t *testing.T) {
	dir := t.TempDir()
	rec := audit.NewFileRecorder(dir, zap.NewNop())
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rec.Record(models.AuditEntry{ID: "1", Action: models.ActionIngest, ChildID: "child-1", MessageID: "m1", Timestamp: now})
	rec.Record(models.AuditEntry{ID: "2", Action: models.ActionFreeze, ChildID: "child-1", Reason: "r", Timestamp: now})
	rec.RecordScoringEvent(models.ScoreLogEntry{MessageID: "m1", ChildID: "child-1", Score: 40, RiskLevel: models.RiskMedium, Flags: []string{"secret"}, Timestamp: now})
	require.NoError(t, rec.Close())

	path := writeConfig(t, "audit:\n  dir: "+dir+"\n")

	out, err := run(t, "--config", path, "audit", "--limit", "1")
	require.NoError(t, err)
	var entries []models.AuditEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "2", entries[0].ID)

	out, err = run(t, "--config", path, "scores")
	require.NoError(t, err)
	var scores []models.ScoreLogEntry
	require.NoError(t, json.Unmarshal([]byte(out), &scores))
	require.Len(t, scores, 1)
	assert.Equal(t, 40, scores[0].Score)
}

func TestLimitBounds(t *testing.T) {
	path := writeConfig(t, "audit:\n  dir: "+t.TempDir()+"\n")

	_, err := run(t, "--config", path, "audit", "--limit", "0")
	assert.Error(t, err)

	_, err = run(t, "--config", path, "scores", "--limit", "1001")
	assert.Error(t, err)

	out, err := run(t, "--config", path, "audit")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}
