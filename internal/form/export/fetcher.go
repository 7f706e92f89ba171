package export

import (
	"NYCU-SDC/form-collector-backend/internal"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"
)

// BlobReader resolves URIs minted by the blob store without a network round trip.
type BlobReader interface {
	Owns(uri string) bool
	Get(ctx context.Context, uri string) ([]byte, error)
}

// Fetcher loads image bytes referenced by answers.
type Fetcher struct {
	blobs   BlobReader
	client  *http.Client
	maxSize int64
}

// NewFetcher returns a Fetcher whose remote downloads only dial public
// addresses. Redirects are dialed through the same check.
func NewFetcher(blobs BlobReader, timeout time.Duration, maxSize int64) *Fetcher {
	return newFetcher(blobs, timeout, maxSize, refuseInternalAddress)
}

func newFetcher(blobs BlobReader, timeout time.Duration, maxSize int64, control func(network, address string, c syscall.RawConn) error) *Fetcher {
	dialer := &net.Dialer{
		Timeout: timeout,
		Control: control,
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &Fetcher{
		blobs:   blobs,
		client:  &http.Client{Timeout: timeout, Transport: transport},
		maxSize: maxSize,
	}
}

// refuseInternalAddress runs after DNS resolution, on the address actually dialed.
func refuseInternalAddress(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", internal.ErrBlockedAddress, address)
	}

	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %s", internal.ErrBlockedAddress, address)
	}
	ip = ip.Unmap()

	if !ip.IsGlobalUnicast() || ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || isSharedAddress(ip) {
		return fmt.Errorf("%w: %s", internal.ErrBlockedAddress, address)
	}
	return nil
}

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

func isSharedAddress(ip netip.Addr) bool {
	return sharedAddressSpace.Contains(ip)
}

func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if f.blobs != nil && f.blobs.Owns(uri) {
		return f.blobs.Get(ctx, uri)
	}

	u, err := url.Parse(uri)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: unsupported uri %q", internal.ErrFetchAsset, uri)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internal.ErrFetchAsset, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internal.ErrFetchAsset, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", internal.ErrFetchAsset, uri, resp.Status)
	}

	body := io.Reader(resp.Body)
	if f.maxSize > 0 {
		body = io.LimitReader(resp.Body, f.maxSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internal.ErrFetchAsset, err)
	}
	if f.maxSize > 0 && int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", internal.ErrFetchAsset, uri, f.maxSize)
	}

	return data, nil
}
