// Package build provides the build pipeline that turns a stored site into
// files in the staging directory.
//
// Builder sequences the staging manager, the descriptor resolver, the handler
// registry and the throttled executor. Stages are named, timed and recorded
// in a Report; a fatal stage aborts the build while warning stages (static
// asset copy) only log. Per-file write failures never abort a build, but an
// item whose handler fails marks the whole build failed once every item has
// been attempted.
package build
