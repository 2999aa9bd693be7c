package content

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	shell "github.com/ipfs/go-ipfs-api"
)

// ErrIPFSUnavailable is returned when the IPFS API cannot be reached.
var ErrIPFSUnavailable = errors.New("IPFS node is not reachable")

// Pinner adds module content to an IPFS node.
type Pinner struct {
	shell *shell.Shell
	addr  string
	log   *slog.Logger
}

// NewPinner returns a pinner for the IPFS API at addr ("host:port" or URL).
func NewPinner(addr string, log *slog.Logger) *Pinner {
	return &Pinner{
		shell: shell.NewShell(addr),
		addr:  addr,
		log:   log,
	}
}

// IsUp reports whether the IPFS API answers.
func (p *Pinner) IsUp() bool {
	return p.shell.IsUp()
}

// PinReader adds r to IPFS, pinned, and returns its CID.
func (p *Pinner) PinReader(r io.Reader) (string, error) {
	start := time.Now()
	if !p.shell.IsUp() {
		p.log.Warn("IPFS node unavailable", slog.String("addr", p.addr))
		return "", ErrIPFSUnavailable
	}

	hash, err := p.shell.Add(r, shell.Pin(true))
	if err != nil {
		p.log.Error("Failed to add content to IPFS", "err", err, slog.Duration("duration", time.Since(start)))
		return "", fmt.Errorf("failed to add content to IPFS: %w", err)
	}
	if _, err := ValidateCID(hash); err != nil {
		return "", err
	}

	p.log.Debug("Pinned content to IPFS",
		slog.String("cid", hash),
		slog.Duration("duration", time.Since(start)))
	return hash, nil
}

// PinFile adds the file at path. wrap, if non-nil, can decorate the reader
// (e.g. with a progress bar) given the file size.
func (p *Pinner) PinFile(path string, wrap func(r io.Reader, size int64) io.Reader) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}

	var r io.Reader = f
	if wrap != nil {
		r = wrap(f, info.Size())
	}
	return p.PinReader(r)
}

// Fetch reads the content behind a CID.
func (p *Pinner) Fetch(c string) ([]byte, error) {
	if _, err := ValidateCID(c); err != nil {
		return nil, err
	}
	if !p.shell.IsUp() {
		return nil, ErrIPFSUnavailable
	}
	rc, err := p.shell.Cat("/ipfs/" + c)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from IPFS: %w", err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
