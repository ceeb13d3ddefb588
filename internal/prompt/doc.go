// Package prompt abstracts operator interaction behind the Prompter port.
//
// Terminal reads replies from a stream (normally stdin) and honours context
// cancellation while waiting; Scripted replays fixed answers for tests and
// non-interactive drivers. Choice and YesNo implement the re-ask-on-invalid
// policy shared by every menu.
package prompt
