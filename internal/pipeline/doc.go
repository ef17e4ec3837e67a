// Package pipeline wires the ingestion stages together:
//
//	scanner -> hasher pool -> processing pool -> batch writer
//
// Stages are connected by bounded channels; a full channel blocks its
// producer, which is the only backpressure mechanism. Each stage
// terminates when its input channel is drained and closed, and closes
// its own output once every worker in its pool has exited, so shutdown
// cascades from the scanner downward. Context cancellation stops all
// stages early.
//
// Failure isolation: a hashing error drops that file with a log line;
// every job that reaches the processing pool produces exactly one
// record, with enrichment fields left empty when decode or inference
// fails. Errors never cross a channel boundary.
package pipeline
