// Package api is the HTTP adapter over the progress engine.
//
// Identity comes from an upstream gateway in the X-User-ID header; the
// user's IANA time zone comes from X-Timezone and falls back to the
// engine's default zone. Domain errors map to status codes:
//
//	ITEM_LOCKED                     409
//	OUT_OF_RANGE, UNKNOWN_SEQUENCE  404
//	TOO_EARLY                       425 (body carries available_on)
//	INVALID_ARGUMENT                400
//	anything else                   500
package api
