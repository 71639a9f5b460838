// The config package encapsulates configuration for a replica.
//
// A replica is expected to store logs, caches, and any runtime
// information within a dedicated base directory. When loading the
// configuration, the first and only argument is the path to the base
// directory rather than the path to the configuration file. The
// designated directory is expected to contain a line-oriented file
// called 'config' that corresponds to the C struct of this package.
// Many paths are derived from the base directory and exposed as methods
// of C, e.g., cache directory path, staging area, etc.
package config
