// Package progress records how far each student has gotten on an
// assignment. One record per student and assignment, written as absolute
// state so repeated submissions stay idempotent. Teachers read a rollup
// of their classroom's records against the roster.
package progress
