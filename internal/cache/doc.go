// Package cache implements the incremental compilation cache.
//
// A build keys every shader on the SHA-256 digest of its fully resolved
// source. Two pieces of state from the previous run decide whether a shader
// can be reused:
//   - the cache file, a name -> digest map (see Encode for the layout)
//   - the previous bundle, a name -> binary map (see package bundle)
//
// A shader is reused only when its name maps to the same digest in the cache
// file AND the previous bundle holds a binary for that name. Everything else
// is recompiled. The cache written at the end of a run is rebuilt from the
// current shader set, so entries for deleted or renamed shaders disappear.
//
// The package also keeps an optional content-addressed store of resolved
// sources (SaveBlob, ReadBlob) used to explain why a shader was recompiled.
package cache
