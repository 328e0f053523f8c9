// Package formcache stores, for every rendered form, a snapshot of which
// fields were offered so a later submission can be checked against that exact
// render. Entries are written once under a fresh random key, never mutated,
// and expire after a TTL enforced by the backing Store.
//
// Three stores ship with the package: MemoryStore for single-process use,
// redisstore.Store and sqlitestore.Store for shared deployments.
package formcache
