// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cifar10

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DefaultURL is the official binary archive.
const DefaultURL = "https://www.cs.toronto.edu/~kriz/cifar-10-binary.tar.gz"

// ErrUnsafePath is returned for archive entries that would escape root.
var ErrUnsafePath = errors.New("cifar10: archive entry escapes destination")

// Downloader fetches and extracts the dataset archive.
type Downloader struct {
	URL    string       // defaults to DefaultURL
	Client *http.Client // defaults to http.DefaultClient
	Output io.Writer    // progress messages; nil for silence
}

// Exists reports whether every batch file is present under root.
func Exists(root string) bool {
	for _, name := range append(append([]string{}, TrainFiles...), TestFiles...) {
		info, err := os.Stat(filepath.Join(root, BatchDir, name))
		if err != nil || info.Size() == 0 {
			return false
		}
	}
	return true
}

// Fetch downloads and extracts the archive into root. It is a no-op when
// the batch files already exist.
func (d *Downloader) Fetch(ctx context.Context, root string) error {
	if Exists(root) {
		return nil
	}

	url := d.URL
	if url == "" {
		url = DefaultURL
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", root, err)
	}

	d.printf("Downloading %s to %s\n", url, root)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %s", url, resp.Status)
	}

	n, err := Extract(resp.Body, root)
	if err != nil {
		return err
	}
	d.printf("Extracted %d files\n", n)

	if !Exists(root) {
		return fmt.Errorf("archive from %s did not contain %s", url, BatchDir)
	}
	return nil
}

func (d *Downloader) printf(format string, args ...any) {
	if d.Output != nil {
		fmt.Fprintf(d.Output, format, args...)
	}
}

// Extract unpacks a gzip-compressed tar stream into root and returns the
// number of regular files written.
func Extract(r io.Reader, root string) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	files := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("failed to read archive: %w", err)
		}

		target, err := safeJoin(root, hdr.Name)
		if err != nil {
			return files, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return files, fmt.Errorf("failed to extract %s: %w", hdr.Name, err)
			}
			files++
		}
	}
}

func safeJoin(root, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return filepath.Join(root, clean), nil
}

// writeFile writes through a temporary sibling; path only appears once the
// copy is complete.
func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".part-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
