// Package cache provides the key/value store backing authorization
// role-set lookups.
//
// Two backends implement the Cache interface:
//   - Memory: in-process map with a background expiry sweep (default)
//   - Redis: shared cache for multi-instance deployments
//
// Values are opaque byte slices; callers own serialization. A miss is
// a (nil, false, nil) return, never an error, so cache-aside code can
// distinguish "not cached" from "backend down".
package cache
