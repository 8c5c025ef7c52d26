// Package httpjson provides the JSON request/response conventions shared by
// all HTTP handlers: a standard response envelope, error rendering keyed by
// sentinel errors, and strict request body decoding.
package httpjson
