/*
Package index implements the immutable secondary-index layer from
spec §4.5: an IndexDefinition maps a stored item to the key(s) it
should be filed under, and an IndexRegistry is a persistent mapping
index_name -> key -> set of record ids, built with the same
structural-sharing discipline as pkg/collection.

A collection that wants indexed lookups holds an ordered tuple of
IndexDefinition alongside its own persistent structure; every mutation
recomputes affected keys via the extractors and folds the change into
a new registry, never mutating the old one in place.
*/
package index
