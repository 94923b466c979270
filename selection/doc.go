// Package selection decides which labeled tests run.
//
// A Selection holds an include set and an exclude set of labels.
// A test is rejected if any of its labels is excluded.
// Otherwise it runs if the include set is empty,
// or if at least one of its labels is included.
// Exclusion always wins over inclusion.
//
// Selections come from expressions ("slow,!flaky"), from TOML, YAML or JSON files,
// and from the environment, and can be merged together.
package selection
