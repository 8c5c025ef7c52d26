// Package email defines the outbound email contract and its Postmark-backed
// implementation. The platform sends transactional mail only: billing notices
// such as payment-failure warnings to teachers.
//
// For local development use NewDevSender, which logs messages instead of
// delivering them.
package email
