// Package build is a helper package for building SSA IR in the parent
// directory.
//
// Usage
//
// There are two ways of building SSA IR from source code:
//
// Build from a list of source files
//
// This is the normal usage, where the files given on the command line are
// considered part of the same package.
//
// Build from a Reader
//
// This is mostly used for testing, where the source of a single file is read
// from a given io.Reader and parsed in memory.
//
package build
