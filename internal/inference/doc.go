// Package inference holds the optional ML capability used to enrich
// visual artifacts with a safety score and descriptive tags.
//
// The Engine is constructed explicitly at startup and handed to every
// processing worker; when model files are unavailable the pipeline runs
// with a nil engine and artifacts simply carry no enrichment. Engine
// calls are stateless and safe for concurrent use.
//
// Each model has its own input contract, so the same sampled frame is
// normalized twice: the safety classifier takes a 224x224 tensor with
// values mapped to [-1, 1], the tagger a 448x448 tensor with values in
// [0, 1].
package inference
