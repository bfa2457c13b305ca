package httpclient

import (
	"slices"
	"sync"
)

// InterceptorRegistry owns the ordered request and response interceptor
// lists of a client. It is append-only: registration order is execution
// order for every call issued after the registration.
type InterceptorRegistry struct {
	mu       sync.RWMutex
	request  []RequestInterceptor
	response []ResponseInterceptor
}

// NewInterceptorRegistry creates an empty registry.
func NewInterceptorRegistry() *InterceptorRegistry {
	return &InterceptorRegistry{}
}

// AddRequest appends a request interceptor. Nil is ignored.
func (r *InterceptorRegistry) AddRequest(fn RequestInterceptor) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.request = append(r.request, fn)
	r.mu.Unlock()
}

// AddResponse appends a response interceptor. Nil is ignored.
func (r *InterceptorRegistry) AddResponse(fn ResponseInterceptor) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.response = append(r.response, fn)
	r.mu.Unlock()
}

// Len returns the number of registered request and response interceptors.
func (r *InterceptorRegistry) Len() (requests, responses int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.request), len(r.response)
}

// snapshot copies both lists so a call is unaffected by later registrations.
func (r *InterceptorRegistry) snapshot() ([]RequestInterceptor, []ResponseInterceptor) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.request), slices.Clone(r.response)
}
