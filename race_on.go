//go:build race

package striped

// raceEnabled reports whether the binary was built with -race.
const raceEnabled = true
