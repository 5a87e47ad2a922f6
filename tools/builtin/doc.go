// Package builtin provides the tools the gentrun CLI ships with.
//
//   - current_time: the current time in a given time zone
//   - read_file: line-numbered file contents under a root directory
//   - list_dir: directory listing under a root directory
//   - shell: runs a single command (no shell interpretation) with a timeout
//
// File tools refuse paths that resolve outside their root. Tool failures are returned as
// *gentrun.ToolError values so the dispatcher reports them with a stable code.
package builtin
