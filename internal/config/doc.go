// Package config holds all runtime configuration for the fedcrawl engine.
//
// Configuration is a single flat struct populated from defaults, optionally
// overridden by a YAML configuration file and by the caller that constructs
// the engine. It is passed through the application via dependency injection
// rather than global state, so concurrent runs with different settings can
// coexist in one process.
//
// The YAML file additionally carries per-entity overrides (priority boosts
// and skip lists) under the "entities" key; see the File type.
package config
