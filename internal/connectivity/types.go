package connectivity

import (
	"context"
	"fmt"
	"strings"
)

// Kind classifies the active network interface.
type Kind int

const (
	KindUnknown Kind = iota
	KindWiFi
	KindCellular
	KindEthernet
	KindDisconnected
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindWiFi:
		return "wifi"
	case KindCellular:
		return "cellular"
	case KindEthernet:
		return "ethernet"
	case KindDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind by name for JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "unknown", "":
		*k = KindUnknown
	case "wifi":
		*k = KindWiFi
	case "cellular":
		*k = KindCellular
	case "ethernet":
		*k = KindEthernet
	case "disconnected":
		*k = KindDisconnected
	default:
		return fmt.Errorf("unknown connection kind %q", text)
	}
	return nil
}

// Path is one observation of the OS interface state.
type Path struct {
	Satisfied bool
	Kind      Kind
}

// State is the published connectivity: an interface is up and the
// reachability probe answered 204.
type State struct {
	Connected bool `json:"connected" yaml:"connected"`
	Kind      Kind `json:"kind" yaml:"kind"`
}

// initialState is assumed until the first probe finishes.
var initialState = State{Connected: true, Kind: KindUnknown}

// PathSource emits interface path changes until ctx is done, then closes
// the channel.
type PathSource interface {
	Events(ctx context.Context) <-chan Path
}

// Prober checks that the internet is actually reachable. It never fails;
// any problem reads as false.
type Prober interface {
	Probe(ctx context.Context) bool
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) bool

func (f ProberFunc) Probe(ctx context.Context) bool { return f(ctx) }
