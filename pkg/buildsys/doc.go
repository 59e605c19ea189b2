// Package buildsys turns the embedded configuration of a script into a build artifact inside a
// per-script cache directory.
// Build commands run through mvdan.cc/sh so that they behave the same on every platform, the optional
// Docker backend runs them inside a container instead.
package buildsys
