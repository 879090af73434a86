// Package script loads Lua-scripted console commands.
//
// A script directory holds one subdirectory per command. Each
// subdirectory contains a manifest.yaml describing the command and a
// Lua entry file defining a run(args) function that returns the
// command's output. All Lua execution is serialized through a single
// goroutine because an LState is not safe for concurrent use.
package script
