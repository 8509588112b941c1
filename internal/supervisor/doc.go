// Package supervisor launches and supervises the single external
// terminal-producing process and feeds its output, line by line, to a
// broadcast publisher.
//
// Full process-group termination is only guaranteed on Linux, where the child
// is placed in its own process group and signals are delivered to the whole
// group. On macOS the same calls are made with best-effort semantics. On
// Windows there is no group signaling: Stop sends an interrupt to the direct
// child and escalates to TerminateProcess, so grandchildren may survive and
// must be cleaned up by other means.
package supervisor
