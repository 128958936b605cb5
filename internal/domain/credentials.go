package domain

import "net/url"

// Credentials carries the inbound request parameters supplied by the host
// framework for one authentication attempt. The provider never inspects
// them; they are forwarded verbatim to the callback as query parameters.
type Credentials struct {
	Parameters url.Values
}
