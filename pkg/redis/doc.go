// Package redis establishes the Redis connection used for short-lived caches
// such as classroom join-code lookups.
package redis
