package main

import (
	"bufio"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/sweeney/weather-station/internal/nav"
	"github.com/sweeney/weather-station/internal/status"
)

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

const networkPollInterval = time.Second

// hasIPv4 reports whether any interface carries a non-loopback IPv4 address.
func hasIPv4() bool {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip4 := ipn.IP.To4(); ip4 != nil && !ip4.IsLoopback() && !ip4.IsLinkLocalUnicast() {
			return true
		}
	}
	return false
}

// waitForNetwork polls probe until it succeeds or wait elapses.
// A zero wait skips the check.
func waitForNetwork(probe func() bool, wait, interval time.Duration, sleep func(time.Duration)) bool {
	if wait <= 0 {
		return true
	}
	for waited := time.Duration(0); ; waited += interval {
		if probe() {
			return true
		}
		if waited >= wait {
			return false
		}
		sleep(interval)
	}
}

// readKeys turns "a" and "b" lines on r into button presses, so the
// navigation can be exercised without hardware. It returns at EOF.
func readKeys(r io.Reader, n *nav.Navigator, now func() time.Time) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var b nav.Button
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "a":
			b = nav.ButtonA
		case "b":
			b = nav.ButtonB
		default:
			continue
		}
		n.OnButtonEdge(b, now().UnixMilli())
	}
}
