// Package project holds the state of a working project: the installed target
// version, the per-side stage flags and the activation gate that serializes runs.
package project
