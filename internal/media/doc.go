// Package media classifies file content and samples frames from visual
// media.
//
// MIME detection sniffs the leading bytes of the file and falls back to
// the filename extension, then to application/octet-stream; it never
// fails a caller. Frame sampling shells out to ffmpeg for one 224x224
// RGB frame every five seconds of media; decode failures are per-file
// conditions for the caller to absorb.
package media
