// Package confloader loads configuration with koanf.
//
// Sources, highest priority first:
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables (MEMKV_ prefix, "__" between nesting levels)
//  3. YAML configuration file
//  4. Defaults already present in the target struct
//
// Watcher reports changes to the configuration file so selected settings
// can be applied without a restart.
package confloader
