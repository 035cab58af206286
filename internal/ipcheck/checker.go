// Package ipcheck watches the host's external IP address. Exchanges that
// whitelist API callers by IP silently reject orders after a redeploy moves
// the bot to a new address; the watcher spots the change early and alerts.
package ipcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hmbass/CoinButler/internal/ports"
)

// defaultServices are queried in order; the first usable answer wins.
var defaultServices = []string{
	"https://api.ipify.org?format=json",
	"https://httpbin.org/ip",
	"https://ipinfo.io/json",
}

const errorBackoff = time.Minute

// Checker polls the IP services and records changes.
type Checker struct {
	http     *http.Client
	services []string
	notifier ports.Notifier
	logPath  string
	interval time.Duration

	lastIP string
}

// changeEntry is one line in the change log.
type changeEntry struct {
	Timestamp  string `json:"timestamp"`
	IP         string `json:"ip"`
	PreviousIP string `json:"previous_ip,omitempty"`
}

// New creates a Checker. notifier may be nil.
func New(notifier ports.Notifier, logPath string, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Checker{
		http:     &http.Client{Timeout: 10 * time.Second},
		services: defaultServices,
		notifier: notifier,
		logPath:  logPath,
		interval: interval,
	}
}

// NewWithServices creates a Checker against custom IP services, for tests.
func NewWithServices(notifier ports.Notifier, logPath string, interval time.Duration, services []string) *Checker {
	c := New(notifier, logPath, interval)
	c.services = services
	return c
}

// Current returns the external IP, trying each service in turn.
func (c *Checker) Current(ctx context.Context) (string, error) {
	var lastErr error
	for _, svc := range c.services {
		ip, err := c.query(ctx, svc)
		if err != nil {
			slog.Warn("ip service failed", "service", svc, "err", err)
			lastErr = err
			continue
		}
		return ip, nil
	}
	return "", fmt.Errorf("ipcheck: all services failed: %w", lastErr)
}

// Watch polls until the context is cancelled. Each detected change is
// appended to the change log and alerted.
func (c *Checker) Watch(ctx context.Context) error {
	slog.Info("ip watcher starting", "interval", c.interval)

	c.check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ip watcher stopped")
			return nil
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

func (c *Checker) check(ctx context.Context) {
	ip, err := c.Current(ctx)
	if err != nil {
		slog.Error("ip check failed", "err", err)
		select {
		case <-time.After(errorBackoff):
		case <-ctx.Done():
		}
		return
	}

	if ip == c.lastIP {
		slog.Debug("ip unchanged", "ip", ip)
		return
	}

	slog.Info("external ip changed", "ip", ip, "previous", c.lastIP)
	slog.Info("add this address to the exchange API whitelist", "ip", ip)

	if err := c.record(ip); err != nil {
		slog.Warn("could not write change log", "err", err)
	}

	if c.notifier != nil {
		msg := fmt.Sprintf("🚨 external IP changed: %s\nupdate the exchange API whitelist", ip)
		if err := c.notifier.Notify(ctx, msg); err != nil {
			slog.Warn("ip change notification dropped", "err", err)
		}
	}

	c.lastIP = ip
}

// record appends one JSON line to the change log.
func (c *Checker) record(ip string) error {
	entry := changeEntry{
		Timestamp:  time.Now().Format("2006-01-02 15:04:05"),
		IP:         ip,
		PreviousIP: c.lastIP,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(c.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// query asks one service and extracts the address from whichever field the
// service uses ("ip" for ipify/ipinfo, "origin" for httpbin).
func (c *Checker) query(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", err
	}

	var payload struct {
		IP     string `json:"ip"`
		Origin string `json:"origin"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}

	ip := payload.IP
	if ip == "" {
		ip = payload.Origin
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "", fmt.Errorf("no address in response")
	}
	return ip, nil
}
