package common

// AccessTokenHeaderName is the HTTP header used to carry the access token on
// outbound requests ("Authorization: Bearer <token>").
const AccessTokenHeaderName = "Authorization"

// BearerPrefix prefixes the access token inside the Authorization header.
const BearerPrefix = "Bearer "
