// Package requestid attaches a correlation ID to every HTTP request. A
// client-supplied X-Request-ID header is reused when it looks sane;
// anything else is replaced with a fresh UUID. The ID rides the request
// context and is echoed back in the response header so log records from
// one interaction can be tied together.
package requestid
