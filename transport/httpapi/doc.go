// Package httpapi exposes the one-time token operations over HTTP using a chi
// router.
//
//	GET  /one-time-token/generate  issue a token for the authenticated session
//	POST /one-time-token/verify    redeem a token, body {"token":"..."}
//
// Errors are written as {"code":"BAD_REQUEST","message":"..."} with the status
// of their goOTT.ErrorClass. Session transports in this package set the
// successor session on the response of the redeeming request.
package httpapi
