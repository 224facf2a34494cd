// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the secret-masking primitive applied at every log call
// site that could emit credential-shaped data (tokens, passwords, signing
// keys). Raw secret values must never reach a log sink.
package middleware

import "strings"

// MaskSecret masks a credential for logging.
//
// Strings longer than 8 characters keep their first 4 characters with the
// remainder replaced by '*'; strings of 8 characters or fewer collapse to
// exactly four asterisks regardless of content, so short secrets leak neither
// content nor length.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}
