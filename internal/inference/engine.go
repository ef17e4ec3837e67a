package inference

import (
	"fmt"
	"os"
)

// Engine wraps the safety classifier and tagger models. It is an
// immutable capability object: construct once at startup, pass to every
// worker, never mutate. A nil *Engine means inference is unavailable
// and callers skip enrichment.
type Engine struct {
	safetyModelPath string
	taggerModelPath string
}

// New verifies both model files exist and returns an engine bound to
// them. Callers that get an error run without inference rather than
// aborting the pipeline.
func New(safetyModelPath, taggerModelPath string) (*Engine, error) {
	if _, err := os.Stat(safetyModelPath); err != nil {
		return nil, fmt.Errorf("safety model unavailable: %w", err)
	}
	if _, err := os.Stat(taggerModelPath); err != nil {
		return nil, fmt.Errorf("tagger model unavailable: %w", err)
	}
	return &Engine{
		safetyModelPath: safetyModelPath,
		taggerModelPath: taggerModelPath,
	}, nil
}

// ClassifySafety scores a normalized frame. Real session execution is
// not wired yet; the call validates the input contract and returns a
// simulated score.
func (e *Engine) ClassifySafety(t *Tensor) (float64, error) {
	if err := checkShape(t, SafetyInputEdge); err != nil {
		return 0, err
	}
	// TODO: run the ONNX session at e.safetyModelPath once a runtime
	// binding lands; until then every frame scores as safe.
	return 0.01, nil
}

// TagImage labels a normalized frame. Simulated until session execution
// is wired, like ClassifySafety.
func (e *Engine) TagImage(t *Tensor) ([]string, error) {
	if err := checkShape(t, TaggerInputEdge); err != nil {
		return nil, err
	}
	return []string{"simulated_tag"}, nil
}

func checkShape(t *Tensor, edge int) error {
	want := [4]int{1, 3, edge, edge}
	if t == nil || t.Shape != want {
		return fmt.Errorf("bad tensor shape: want %v", want)
	}
	if len(t.Data) != 3*edge*edge {
		return fmt.Errorf("tensor data length %d does not match shape %v", len(t.Data), want)
	}
	return nil
}
