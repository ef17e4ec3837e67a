package config

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envFileName = ".env"

	envKeySafety = "NSFW_MODEL_PATH"
	envKeyTagger = "TAGGER_MODEL_PATH"

	safetyModelName = "nsfw.onnx"
	taggerModelName = "tagger.onnx"

	modelSearchDepth = 5
)

// ModelPaths locates the two ONNX models the inference engine loads.
type ModelPaths struct {
	Safety string
	Tagger string
}

// ResolveModelPaths returns the model locations, checking the .env file
// in the working directory first and searching nearby directories when
// it is missing or incomplete. A successful search is persisted back to
// .env so the next run skips it.
func ResolveModelPaths() (ModelPaths, error) {
	if paths, err := loadEnvFile(envFileName); err == nil {
		slog.Info("loaded model paths from .env")
		return paths, nil
	}

	slog.Info("models not found in .env, searching filesystem")

	root, err := os.Getwd()
	if err != nil {
		return ModelPaths{}, err
	}

	safety, err := findFile(root, safetyModelName, modelSearchDepth)
	if err != nil {
		return ModelPaths{}, err
	}
	tagger, err := findFile(root, taggerModelName, modelSearchDepth)
	if err != nil {
		return ModelPaths{}, err
	}

	paths := ModelPaths{Safety: safety, Tagger: tagger}
	slog.Info("found models", "safety", safety, "tagger", tagger)

	if err := saveEnvFile(envFileName, paths); err != nil {
		return ModelPaths{}, err
	}
	slog.Info("saved model paths to .env")

	return paths, nil
}

// loadEnvFile reads both model paths from a dotenv file. Incomplete
// files are an error so the caller falls through to the search.
func loadEnvFile(path string) (ModelPaths, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return ModelPaths{}, err
	}

	paths := ModelPaths{
		Safety: strings.TrimSpace(env[envKeySafety]),
		Tagger: strings.TrimSpace(env[envKeyTagger]),
	}
	if paths.Safety == "" || paths.Tagger == "" {
		return ModelPaths{}, fmt.Errorf("incomplete %s file", path)
	}
	return paths, nil
}

// saveEnvFile persists the model paths for the next run.
func saveEnvFile(path string, paths ModelPaths) error {
	err := godotenv.Write(map[string]string{
		envKeySafety: paths.Safety,
		envKeyTagger: paths.Tagger,
	}, path)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// findFile searches root (and, failing that, its parent) for a file by
// name, descending at most maxDepth levels.
func findFile(root, name string, maxDepth int) (string, error) {
	if found := walkFor(root, name, maxDepth); found != "" {
		return found, nil
	}
	if parent := filepath.Dir(root); parent != root {
		if found := walkFor(parent, name, maxDepth); found != "" {
			return found, nil
		}
	}
	return "", fmt.Errorf("could not find %q in nearby directories", name)
}

func walkFor(root, name string, maxDepth int) string {
	var found string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && strings.Count(rel, string(filepath.Separator)) >= maxDepth {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found
}
