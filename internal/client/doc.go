// Package client implements the authenticated HTTP pipeline between caller
// modules and the ILAS backend.
//
// Outbound, [Transport] attaches the session's access token as a bearer
// credential and optionally throttles requests. Inbound, it watches for 401
// responses and hands them to a [Coordinator], which performs a single-flight
// token refresh: no matter how many requests fail concurrently, exactly one
// refresh call goes out, every suspended request waits on its own channel, and
// all of them are replayed (or rejected) in FIFO order once the refresh
// settles. Each original request is replayed at most once.
//
// [Client] is a thin JSON convenience wrapper over the resulting http.Client
// used by the caller modules in internal/services.
package client
