// Package app is the composition root of netmoya.
//
// # Overview
//
// New turns a config.Config into a running network layer: the session with
// its environment and persisted token, the connectivity monitor, the API
// client gated on that monitor, and the typed catalog services. The cobra
// commands and the status view only talk to an *App.
//
//	┌──────────────┐
//	│   New()      │
//	└──────┬───────┘
//	       ├─────> session.New()                 environment + base URLs
//	       ├─────> tokenstore.Open()/Load()      persisted access token
//	       ├─────> connectivity.New()            interface watcher + probe
//	       ├─────> api.NewHTTPClient()           timeouts + optional pinning
//	       ├─────> api.NewClient()               gate = monitor
//	       ├─────> catalog.New*Service()
//	       └─────> Logout().Subscribe()          401 → clear session + store
//
// # Logout
//
// The client fires its logout signal on every 401. The handler registered by
// New clears the session token and the token store and marks the state store
// logged out. Login and Logout do the same on explicit user request.
//
// # Polling
//
// StartPoller refreshes the first product page and the API health into the
// state store. After a failed refresh nextDelay picks the wait: offline
// failures keep the base interval, auth failures wait 30 seconds, and other
// failures double the interval per consecutive failure up to 30 seconds.
// Cancelled refreshes are not recorded as failures.
//
// # Metrics
//
// When metrics_addr is set, Run serves the default Prometheus registry at
// /metrics for the lifetime of the status view.
package app
