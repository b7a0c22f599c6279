/*
Package query implements the index-aware query engine from spec §4.6:
a small logical Expression AST, a set of physical plans that execute
as pull-based streams of records, and an optimizer that rewrites
AND/OR predicates into reference-set intersections/unions over
pkg/index's IndexRegistry wherever an indexed field makes that
possible.

A Source is whatever collection the query runs over (pkg/collection's
List/Dictionary/Set, or a higher-level table built on top of them); it
exposes enough surface — iteration, point lookup by id, and an
optional field→index map — for the optimizer to decide between a full
ListPlan scan and an indexed plan.

Optimization never changes query results, only the path taken to
produce them: every rewrite in Optimize produces a plan whose output
set is identical to evaluating the original predicate with WherePlan
over a ListPlan.
*/
package query
