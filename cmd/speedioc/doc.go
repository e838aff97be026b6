// Command speedioc inspects and maintains a cache location of persisted
// container plans.
//
// A cache location is the directory set as CacheLocation in the build
// options. It holds one <identity>.plan.yaml per artifact identity and, when
// RetainGeneratedArtifact is set, a <identity>.gen.go rendition.
//
// Usage
//
//	speedioc --cache ./.speedioc list
//	speedioc --cache ./.speedioc inspect orders
//	speedioc --cache ./.speedioc verify
//	speedioc --cache ./.speedioc render orders --package wiring --comments
//	speedioc --cache ./.speedioc serve orders --addr :8081
//	speedioc --cache ./.speedioc purge orders
//
// The cache location falls back to the cacheLocation key of the --config YAML
// file, then to SPEEDIOC_CACHE_LOCATION (process environment or .env).
//
// verify exits non-zero when any plan fails its checksum or format checks.
// serve exposes the diagnostics routes until interrupted.
package main
