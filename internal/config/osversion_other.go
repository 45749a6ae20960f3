//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package config

func osVersion() string { return "" }
