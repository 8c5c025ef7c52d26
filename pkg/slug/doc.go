// Package slug turns titles into URL-safe identifiers. Output uses
// lowercase ASCII letters, digits and hyphens; everything else collapses
// into single hyphens.
package slug
