// Package parallel implements the optional work-stealing scan
// executor from spec §5 and §8: a pool of workers, each holding its
// own double-ended queue of index-range chunks, that drains a
// logically sequential range [0, n) with adaptive chunk sizing and
// top-of-deque stealing when a worker runs dry. Ordering across
// chunks is not guaranteed; callers that need ordering must sort the
// result or run with a single worker.
package parallel
