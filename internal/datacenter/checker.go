// Package datacenter keeps an in-memory set of hosting and cloud network
// ranges. Analytics uses it to classify scripted traffic that hides behind a
// browser user agent.
package datacenter

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const fetchTimeout = 30 * time.Second

type Format int

const (
	// Lines is one CIDR per line; blank lines and # comments are skipped.
	Lines Format = iota
	// CSV takes the CIDR from the first column of each record.
	CSV
	// OCI is Oracle Cloud's public_ip_ranges.json.
	OCI
)

// Source is one published list of hosting ranges.
type Source struct {
	Name   string
	URL    string
	Format Format
}

// DefaultSources are the public lists fetched in production.
func DefaultSources() []Source {
	return []Source{
		{"datacenters", "https://raw.githubusercontent.com/jhassine/server-ip-addresses/master/data/datacenters.txt", Lines},
		{"oci", "https://docs.cloud.oracle.com/en-us/iaas/tools/public_ip_ranges.json", OCI},
		{"digitalocean", "https://www.digitalocean.com/geo/google.csv", CSV},
	}
}

// Scaleway does not publish a machine-readable list.
var staticRanges = []string{
	"62.210.0.0/16", "195.154.0.0/16", "163.172.0.0/16", "51.15.0.0/16", "51.158.0.0/15",
}

type Checker struct {
	mu     sync.RWMutex
	ranges []netip.Prefix

	sources []Source
	client  *http.Client
	log     *zap.Logger

	stop chan struct{}
	done chan struct{}
}

// New returns a checker seeded with the static ranges. Call Start to fetch
// sources in the background.
func New(log *zap.Logger, sources ...Source) *Checker {
	c := &Checker{
		sources: sources,
		client:  &http.Client{Timeout: fetchTimeout},
		log:     log,
	}
	c.ranges, _ = parseLines(strings.NewReader(strings.Join(staticRanges, "\n")))
	return c
}

// Contains reports whether ip falls inside a known hosting range.
func (c *Checker) Contains(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.ranges {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (c *Checker) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ranges)
}

// Start refreshes immediately and then every interval until Shutdown.
func (c *Checker) Start(interval time.Duration) {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(interval)
}

func (c *Checker) Shutdown() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.done
}

func (c *Checker) run(interval time.Duration) {
	defer close(c.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-c.stop
		cancel()
	}()

	c.refreshAndLog(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.refreshAndLog(ctx)
		case <-c.stop:
			return
		}
	}
}

func (c *Checker) refreshAndLog(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		c.log.Warn("hosting ranges partially refreshed", zap.Error(err))
	}
	c.log.Info("hosting ranges loaded", zap.Int("ranges", c.Len()))
}

// Refresh fetches every source concurrently. Sources that fail are reported
// in the returned error; the ranges that did load replace the current set.
func (c *Checker) Refresh(ctx context.Context) error {
	var (
		mu      sync.Mutex
		fetched []netip.Prefix
		errs    []error
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range c.sources {
		g.Go(func() error {
			prefixes, err := c.fetch(ctx, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", src.Name, err))
				return nil
			}
			fetched = append(fetched, prefixes...)
			return nil
		})
	}
	g.Wait()

	if len(fetched) > 0 {
		static, _ := parseLines(strings.NewReader(strings.Join(staticRanges, "\n")))
		c.mu.Lock()
		c.ranges = append(static, fetched...)
		c.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (c *Checker) fetch(ctx context.Context, src Source) ([]netip.Prefix, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	switch src.Format {
	case CSV:
		return parseCSV(resp.Body)
	case OCI:
		return parseOCI(resp.Body)
	default:
		return parseLines(resp.Body)
	}
}

func parseLines(r io.Reader) ([]netip.Prefix, error) {
	var out []netip.Prefix
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if p, err := netip.ParsePrefix(line); err == nil {
			out = append(out, p.Masked())
		}
	}
	return out, scanner.Err()
}

func parseCSV(r io.Reader) ([]netip.Prefix, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	var out []netip.Prefix
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 0 {
			continue
		}
		if p, err := netip.ParsePrefix(strings.TrimSpace(record[0])); err == nil {
			out = append(out, p.Masked())
		}
	}
}

func parseOCI(r io.Reader) ([]netip.Prefix, error) {
	var data struct {
		Regions []struct {
			CIDRs []struct {
				CIDR string `json:"cidr"`
			} `json:"cidrs"`
		} `json:"regions"`
	}
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}
	var out []netip.Prefix
	for _, region := range data.Regions {
		for _, c := range region.CIDRs {
			if p, err := netip.ParsePrefix(c.CIDR); err == nil {
				out = append(out, p.Masked())
			}
		}
	}
	return out, nil
}
