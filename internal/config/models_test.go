package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFile_SaveAndLoadRoundTrip(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	want := ModelPaths{Safety: "/tmp/nsfw.onnx", Tagger: "/tmp/tagger.onnx"}

	require.NoError(t, saveEnvFile(envPath, want))

	content, err := os.ReadFile(envPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "NSFW_MODEL_PATH")
	assert.Contains(t, string(content), "/tmp/tagger.onnx")

	got, err := loadEnvFile(envPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadEnvFile_Incomplete(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("NSFW_MODEL_PATH=/tmp/nsfw.onnx\n"), 0o644))

	_, err := loadEnvFile(envPath)
	assert.Error(t, err)
}

func TestLoadEnvFile_Missing(t *testing.T) {
	_, err := loadEnvFile(filepath.Join(t.TempDir(), ".env"))
	assert.Error(t, err)
}

func TestFindFile_DescendsIntoSubdirectories(t *testing.T) {
	root := t.TempDir()
	modelDir := filepath.Join(root, "models", "v2")
	require.NoError(t, os.MkdirAll(modelDir, 0o755))
	modelPath := filepath.Join(modelDir, "nsfw.onnx")
	require.NoError(t, os.WriteFile(modelPath, []byte("onnx"), 0o644))

	found, err := findFile(root, "nsfw.onnx", 5)
	require.NoError(t, err)
	assert.Equal(t, modelPath, found)
}

func TestFindFile_RespectsDepthLimit(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c", "d")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(deep, "tagger.onnx"), []byte("onnx"), 0o644))

	_, err := findFile(root, "tagger.onnx", 2)
	assert.Error(t, err)
}

func TestDefault_SaneValues(t *testing.T) {
	def := Default()
	assert.Equal(t, 4, def.HashWorkers)
	assert.Equal(t, 2, def.ProcessWorkers)
	assert.Equal(t, 1024, def.ChannelCapacity)
	assert.Equal(t, 1000, def.BatchSize)
	assert.Equal(t, int64(500<<20), def.MmapThreshold)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEEPARCHIVE_HASH_WORKERS", "8")
	t.Setenv("DEEPARCHIVE_BATCH_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.HashWorkers)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 2, cfg.ProcessWorkers)
}

func TestWithDefaults_ClampsInvalid(t *testing.T) {
	cfg := Pipeline{HashWorkers: -1, BatchSize: 0}.WithDefaults()
	assert.Equal(t, 4, cfg.HashWorkers)
	assert.Equal(t, 1000, cfg.BatchSize)
}
