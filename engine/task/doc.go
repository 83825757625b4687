// Package task defines the catalog of pipeline operations (modes), the sides
// of a project they act on, and the eligibility rules that decide which modes
// may run against a given project state.
package task
