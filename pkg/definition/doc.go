// Package definition loads form definitions from declaration files and
// OpenAPI component schemas, and keeps them in a named Registry.
package definition
