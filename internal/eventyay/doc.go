// Package eventyay is the transport for the eventyay check-in API: list
// discovery, ticket redemption and badge download, authorized with a
// device token.
package eventyay
