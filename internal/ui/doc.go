// Package ui is the live status view started by "netmoya watch".
//
// The Bubble Tea model polls state.Store on a tick and renders a header
// (connectivity, environment, sign-in and API health), a bubbles table of the
// first product page, and a viewport over the tail of the JSON log file. It
// never calls the API itself; the background poller in package app does.
//
// Keys: tab or p/l switch panes, space toggles log follow, T cycles the
// theme, ? shows help, e or ctrl+c quits. Theme and follow mode are saved to
// the prefs file and restored on the next start.
package ui
