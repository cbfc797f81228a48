// Package common contains shared constants and sentinel errors used across
// zkauth components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on inbound and outbound requests.
const AccessTokenHeaderName = "access_token"

// SessionCookieName is the default name of the HTTP session cookie.
const SessionCookieName = "zkauth_session"
