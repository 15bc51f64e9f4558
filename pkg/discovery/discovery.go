// Package discovery advertises the drive node on mDNS and lets the
// controller find it without a configured URL.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/teslashibe/go-soccerbot/internal/log"
)

const (
	// ServiceType is the DNS-SD type the drive node registers
	ServiceType = "_soccerdrive._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."
)

// ErrNotFound is returned when Browse times out without an answer
var ErrNotFound = errors.New("discovery: no drive node found")

// Advertiser keeps a zeroconf registration alive until Shutdown
type Advertiser struct {
	mu       sync.Mutex
	server   *zeroconf.Server
	instance string
	port     int
}

// Advertise registers the drive node. An empty instance uses
// "<hostname>-drive". meta becomes TXT records.
func Advertise(instance string, port int, meta map[string]string) (*Advertiser, error) {
	if instance == "" {
		hostname, _ := os.Hostname()
		instance = fmt.Sprintf("%s-drive", hostname)
	}

	server, err := zeroconf.Register(
		instance,
		ServiceType,
		ServiceDomain,
		port,
		txtRecords(meta),
		nil, // All interfaces
	)
	if err != nil {
		return nil, fmt.Errorf("discovery: register %s: %w", instance, err)
	}

	log.Info("mDNS advertised", "instance", instance, "service", ServiceType, "port", port)
	return &Advertiser{server: server, instance: instance, port: port}, nil
}

// Instance returns the registered instance name
func (a *Advertiser) Instance() string {
	return a.instance
}

// Shutdown withdraws the registration; safe to call twice
func (a *Advertiser) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		log.Info("mDNS registration withdrawn", "instance", a.instance)
	}
}

// Browse waits up to timeout for the first drive node and returns its
// base URL, e.g. http://192.168.1.20:8090
func Browse(ctx context.Context, timeout time.Duration) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("discovery: resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 4)
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return "", fmt.Errorf("discovery: browse: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ErrNotFound
		case entry, ok := <-entries:
			if !ok {
				return "", ErrNotFound
			}
			if url, ok := EntryURL(entry); ok {
				log.Info("drive node found", "instance", entry.Instance, "url", url)
				return url, nil
			}
		}
	}
}

// EntryURL builds a base URL from a resolved entry, preferring IPv4.
// The TXT record "scheme" overrides http.
func EntryURL(e *zeroconf.ServiceEntry) (string, bool) {
	if e == nil || e.Port <= 0 {
		return "", false
	}

	var host string
	switch {
	case len(e.AddrIPv4) > 0:
		host = e.AddrIPv4[0].String()
	case len(e.AddrIPv6) > 0:
		host = e.AddrIPv6[0].String()
	case e.HostName != "":
		host = strings.TrimSuffix(e.HostName, ".")
	default:
		return "", false
	}

	scheme := TXTValue(e.Text, "scheme")
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(e.Port)), true
}

// TXTValue returns the value of key in key=value TXT records
func TXTValue(text []string, key string) string {
	prefix := key + "="
	for _, t := range text {
		if strings.HasPrefix(t, prefix) {
			return strings.TrimPrefix(t, prefix)
		}
	}
	return ""
}

// txtRecords renders meta as sorted key=value strings
func txtRecords(meta map[string]string) []string {
	records := make([]string, 0, len(meta))
	for k, v := range meta {
		records = append(records, k+"="+v)
	}
	sort.Strings(records)
	return records
}
