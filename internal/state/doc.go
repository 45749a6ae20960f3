// Package state provides thread-safe state shared between the background
// refresher and the status view.
//
// # Overview
//
// The refresher writes the latest product page, API health and any refresh
// error; the connectivity subscriber writes the monitor state; the status
// view reads copies on its own tick.
//
//	Refresher:                     Status view:
//	┌──────────────────┐          ┌──────────────────┐
//	│ products.List()  │          │                  │
//	│ health.Check()   │          │                  │
//	│ store.Update()   │─────────→│ store.Snapshot() │
//	│ SetConnectivity()│ (RWMutex)│ render           │
//	└──────────────────┘          └──────────────────┘
//
// # Update Semantics
//
// A failed refresh keeps the previous product page, records the error and
// increments ConsecutiveFailures. A successful refresh replaces the page and
// resets the counter. IsOffline is true when the monitor reports no
// connectivity or two refreshes in a row failed.
//
// # Copies
//
// Snapshot returns the product slice and the last error as copies, so the
// view can never mutate what the refresher sees.
//
// Use NewStore; the zero Store reports disconnected until SetConnectivity
// is called.
package state
