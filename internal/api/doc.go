// Package api is the request pipeline shared by every netmoya service.
//
// A Descriptor declares one call: method, path, how parameters travel (a
// Task: plain, query string, JSON body or multipart) and which default
// headers to override. Client turns a descriptor into an HTTP request
// against the session's base URL and maps every outcome into exactly one
// *Error kind:
//
//   - the connectivity gate is checked first; when closed the call fails
//     with KindNoInternetConnection and nothing is sent
//   - 401 fires the LogoutSignal once and returns KindUnauthorized
//   - 403 and 404 map to KindForbidden and KindNotFound
//   - other non-2xx answers become KindAPIError when the body carries a
//     "message", KindServerError otherwise
//   - transport failures are KindTransportError, caller cancellation is
//     KindCancelled, undecodable bodies are KindDecodingError
//
// Execute decodes a bare payload, ExecuteEnvelope decodes the
// {status, message, data} wrapper, and ExecuteEmpty discards the body.
// Calls share no per-call state and may run concurrently.
//
// NewHTTPClient configures timeouts and optional certificate pinning.
// Request counts and latencies are exported as Prometheus metrics under the
// netmoya_api_ prefix.
package api
