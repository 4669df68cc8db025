package common

import "net/http"

// WebContext describes the HTTP exchange an authentication takes place in.
// Both fields may be nil when authenticating outside of a request.
type WebContext struct {
	Request  *http.Request
	Response http.ResponseWriter
}
