// Package naming resolves collision-free output paths of the form
// {base}_{preset}_vNN.{container}, tracking paths already handed out during a
// run so they are not reused before the encoder creates them.
package naming
