// Package proxy brokers tool invocations through the result cache.
//
// An Invoker checks cacheability before every call, serves fresh cached
// results without executing anything, and stores successful results on a
// miss. Errors from the real operation are never cached. Concurrent
// identical misses are collapsed so the underlying tool runs once.
package proxy
