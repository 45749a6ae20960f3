package connectivity

import (
	"context"
	"net"
	"strings"
	"time"
)

// Interface is the subset of net.Interface the watcher classifies.
type Interface struct {
	Name       string
	Up         bool
	Loopback   bool
	HasAddress bool
}

// InterfaceLister returns the current interfaces.
type InterfaceLister func() ([]Interface, error)

// SystemInterfaces lists the host's interfaces.
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		out = append(out, Interface{
			Name:       iface.Name,
			Up:         iface.Flags&net.FlagUp != 0,
			Loopback:   iface.Flags&net.FlagLoopback != 0,
			HasAddress: err == nil && len(addrs) > 0,
		})
	}
	return out, nil
}

// InterfaceWatcher polls the interface list and emits a Path whenever the
// classification changes. The first poll always emits.
type InterfaceWatcher struct {
	interval time.Duration
	list     InterfaceLister
}

var _ PathSource = (*InterfaceWatcher)(nil)

const defaultWatchInterval = 2 * time.Second

// NewInterfaceWatcher polls every interval using list. A nil list uses
// SystemInterfaces.
func NewInterfaceWatcher(interval time.Duration, list InterfaceLister) *InterfaceWatcher {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	if list == nil {
		list = SystemInterfaces
	}
	return &InterfaceWatcher{interval: interval, list: list}
}

// Events starts polling. The channel closes when ctx is done.
func (w *InterfaceWatcher) Events(ctx context.Context) <-chan Path {
	out := make(chan Path, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		var last Path
		first := true
		for {
			current := w.poll()
			if first || current != last {
				select {
				case out <- current:
				case <-ctx.Done():
					return
				}
				last = current
				first = false
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}

// StaticSource reports a single fixed path and stays open until ctx is done.
// Useful for hosts whose interfaces say nothing about reachability, such as
// containers talking to a local API.
type StaticSource struct {
	Path Path
}

var _ PathSource = StaticSource{}

// Events emits s.Path once.
func (s StaticSource) Events(ctx context.Context) <-chan Path {
	out := make(chan Path, 1)
	out <- s.Path
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out
}

func (w *InterfaceWatcher) poll() Path {
	ifaces, err := w.list()
	if err != nil {
		return Path{Satisfied: false, Kind: KindDisconnected}
	}
	return classify(ifaces)
}

// kindPriority orders interfaces the way the OS path reports them: wifi,
// then cellular, then wired.
var kindPriority = map[Kind]int{KindWiFi: 3, KindCellular: 2, KindEthernet: 1, KindUnknown: 0}

// classify picks the best usable interface.
func classify(ifaces []Interface) Path {
	best := Path{Satisfied: false, Kind: KindDisconnected}
	for _, iface := range ifaces {
		if !iface.Up || iface.Loopback || !iface.HasAddress || isVirtual(iface.Name) {
			continue
		}
		kind := classifyName(iface.Name)
		if !best.Satisfied || kindPriority[kind] > kindPriority[best.Kind] {
			best = Path{Satisfied: true, Kind: kind}
		}
	}
	return best
}

var (
	wifiPrefixes     = []string{"wlan", "wlp", "wl", "wifi", "ath", "awdl"}
	cellularPrefixes = []string{"wwan", "rmnet", "ppp", "pdp_ip", "ccmni"}
	ethernetPrefixes = []string{"eth", "eno", "enp", "ens", "enx", "en"}
	virtualPrefixes  = []string{"docker", "veth", "br-", "virbr", "cni", "flannel", "utun", "llw", "bridge"}
)

func classifyName(name string) Kind {
	n := strings.ToLower(name)
	switch {
	case hasAnyPrefix(n, wifiPrefixes):
		return KindWiFi
	case hasAnyPrefix(n, cellularPrefixes):
		return KindCellular
	case hasAnyPrefix(n, ethernetPrefixes):
		return KindEthernet
	default:
		return KindUnknown
	}
}

func isVirtual(name string) bool {
	return hasAnyPrefix(strings.ToLower(name), virtualPrefixes)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
