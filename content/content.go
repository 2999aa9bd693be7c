// Package content understands the locations a module can point at: GitHub
// repositories, IPFS content and plain HTTP URLs.
package content

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ipfs/go-cid"
)

// Kind classifies a module URL.
type Kind string

const (
	KindGithub  Kind = "github"
	KindIPFS    Kind = "ipfs"
	KindHTTP    Kind = "http"
	KindUnknown Kind = "unknown"
)

// Classify returns the kind of location raw points at.
func Classify(raw string) Kind {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return KindUnknown
	}
	if _, err := ParseIPFS(raw); err == nil {
		return KindIPFS
	}
	u, err := url.Parse(raw)
	if err != nil {
		return KindUnknown
	}
	host := strings.ToLower(u.Host)
	switch {
	case host == "github.com" || host == "www.github.com":
		return KindGithub
	case strings.HasPrefix(raw, "github.com/"):
		return KindGithub
	case u.Scheme == "http" || u.Scheme == "https":
		return KindHTTP
	}
	return KindUnknown
}

// InferName returns the module name suggested for a URL: its last path
// segment, without a trailing slash or ".git".
func InferName(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		raw = u.Host + u.Path
	}
	raw = strings.TrimRight(raw, "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}
	return strings.TrimSuffix(raw, ".git")
}

// ParseIPFS extracts the CID from "ipfs://<cid>[/path]", "/ipfs/<cid>[/path]"
// or a bare CID.
func ParseIPFS(raw string) (cid.Cid, error) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "ipfs://"):
		s = strings.TrimPrefix(s, "ipfs://")
	case strings.HasPrefix(s, "/ipfs/"):
		s = strings.TrimPrefix(s, "/ipfs/")
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return ValidateCID(s)
}

// ValidateCID parses a CID string, v0 or v1.
func ValidateCID(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, fmt.Errorf("invalid CID %q: %w", s, err)
	}
	return c, nil
}

// IPFSURL formats a CID as an ipfs:// module URL.
func IPFSURL(c string) string {
	return "ipfs://" + c
}
