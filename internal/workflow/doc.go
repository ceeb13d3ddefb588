// Package workflow runs the interactive encode session. A session verifies
// the environment, analyzes the input video, resolves color handling, lets
// the operator queue presets and pick an output base name, previews the
// plan, then measures loudness once and encodes each preset in turn. Every
// job is recorded in the encode history and the run's scratch data is
// removed on exit, interrupted or not.
package workflow
