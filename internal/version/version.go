// Package version holds the current release version of the sequitur module.
package version

// Current is the current version of sequitur.
const Current = "0.1.0"
