// Package cleanup removes the transient artifacts of an encode run.
//
// The run temp dir is deleted recursively. The work dir is then scanned for
// two-pass leftovers (pass logs, mbtree, temp and stats files). Each match is
// probed with a non-blocking advisory lock before removal; files held by a
// concurrent encode are retried a bounded number of times and finally
// reported as leftovers. Cleanup never returns an error.
package cleanup
