package httpx

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain applies mws to h so that the first middleware is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// ChainFunc is Chain for a HandlerFunc.
func ChainFunc(h http.HandlerFunc, mws ...Middleware) http.Handler {
	return Chain(h, mws...)
}
