// Package process runs the decoder subprocess for the playback pipeline.
//
// A Decoder wraps one subprocess whose stdout is a binary stream consumed
// by the caller (raw decoded frames) and whose stderr is line-streamed into
// the logging system through a pluggable LogParser. Stopping is graceful
// first (SIGINT, bounded wait) and forceful second (SIGKILL, bounded wait),
// so a wedged decoder can never hang teardown.
//
// The pipeline restarts decoders freely: every seek, track switch, or rate
// change builds a new command and replaces the running Decoder. Decoders
// are therefore cheap, single-use objects rather than long-lived managers.
package process
