// Package main hosts the o3enc command.
//
// Without a subcommand it runs one interactive encode session for the given
// input file, or the environment checks when --init is passed. The presets,
// history and config subcommands are thin views over the internal packages.
package main
