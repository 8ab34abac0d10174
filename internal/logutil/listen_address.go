package logutil

import (
	"iter"
	"log/slog"
	"net"
	"strconv"
)

// ListenAddressValue prints addresses suitable for `asynccopy send`.
// For listener bound to "0.0.0.0:38009" it prints all non-loopback interface addresses with that port.
func ListenAddressValue(addr net.Addr) slog.Value {
	return slog.AnyValue(listenAddress{addr})
}

type listenAddress struct {
	addr net.Addr
}

func (la listenAddress) LogValue() slog.Value {
	tcpAddr, ok := la.addr.(*net.TCPAddr)
	if !ok || !tcpAddr.IP.IsUnspecified() {
		return slog.StringValue(la.addr.String())
	}

	ifaddrs, err := interfaceAddrs(tcpAddr.Zone)
	if err != nil {
		return slog.StringValue(la.addr.String())
	}

	port := strconv.Itoa(tcpAddr.Port)
	onlyV4 := tcpAddr.IP.To4() != nil

	var ret []string
	for ip := range dialableIPs(ifaddrs, onlyV4) {
		ret = append(ret, net.JoinHostPort(ip, port))
	}

	if len(ret) == 0 {
		return slog.StringValue(la.addr.String())
	}

	return slog.AnyValue(ret)
}

func interfaceAddrs(zone string) ([]net.Addr, error) {
	if zone == "" {
		return net.InterfaceAddrs()
	}

	iface, err := net.InterfaceByName(zone)
	if err != nil {
		return nil, err
	}

	return iface.Addrs()
}

func dialableIPs(ifaddrs []net.Addr, onlyV4 bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, ifaddr := range ifaddrs {
			ipNet, ok := ifaddr.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() {
				continue
			}

			if onlyV4 && ipNet.IP.To4() == nil {
				continue
			}

			if !yield(ipNet.IP.String()) {
				return
			}
		}
	}
}
