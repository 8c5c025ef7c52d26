// Package qrcode generates QR code images for classroom join codes, so
// teachers can print a poster students scan to reach the join page.
//
// It is a thin wrapper around github.com/skip2/go-qrcode that adds input
// validation and a data-URI helper.
package qrcode
