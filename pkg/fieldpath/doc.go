/*
Package fieldpath converts between nested field data and flat maps keyed by
canonical path strings.

A path is made of dot separated object keys and bracketed list indices:

	user.emails[0].address

Flatten walks a tree of maps and lists and collects every leaf, where "leaf" is
decided by the caller (IsScalar, or "this path is a registered field").
Unflatten is the pointwise inverse and always builds a fresh tree. The package
holds no state.
*/
package fieldpath
