// Package pxp builds a symbol index for PHP and its PXP superset. The index
// maps fully qualified function names to their signatures (parameters,
// return type, reference semantics, source location) so tooling can answer
// "what does this callable look like?" without re-parsing on every query.
//
// # Pipeline
//
//  1. Stubs: offline, one annotated standard-library corpus is filtered per
//     release. Declarations carry #[Since('x.y')] and #[Removed('x.y')]
//     markers; each release gets a directory holding only what existed in it,
//     with the markers stripped. See internal/stubs.
//
//  2. Index: at runtime, an [Indexer] walks the project roots plus the stub
//     directory for the active release, parses every .php and .pxp file
//     through a content-addressed parse cache and records each function
//     declaration in an [Index].
//
// # Usage
//
//	cache, err := parsecache.New(parser, parsecache.DefaultMaxEntries)
//	if err != nil { ... }
//	ix, err := pxp.New("stubs/8.3", cache)
//	if err != nil { ... }
//
//	idx, err := ix.Index(ctx, []string{"src"})
//	// err joins any I/O failures; idx is populated either way.
//	fn, ok := idx.Function(`App\Support\helper`)
//
// # Types
//
// Parameter and return types are declared types when present. Otherwise
// the @param and @return tags of the function's docblock fill them in.
// Anything left undetermined is the Unknown type, which prints as "mixed".
package pxp
