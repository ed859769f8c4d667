// Package source loads enforcement rule sets from YAML files and watches
// them for changes. A reload always produces a complete new rule set that
// the engine swaps in atomically; a broken file leaves the previous set
// in place.
package source
