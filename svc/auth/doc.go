// Package auth handles sign-in and request authentication. Users sign in
// through an OAuth provider (Google for the classroom deployments); the
// callback provisions a local user on first sign-in and issues a signed
// session token carried in a cookie. Request middleware validates the token
// and puts the user on the request context, where handlers and role checks
// read it.
package auth
