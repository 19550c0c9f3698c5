package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

// Install errors.
var (
	ErrNoAsset  = errors.New("release has no asset")
	ErrChecksum = errors.New("checksum verification failed")
)

const (
	checksumsAsset = "checksums.txt"
	maxDownload    = 256 << 20
)

// Stage is a step of Install.
type Stage string

const (
	StageDownload Stage = "download"
	StageVerify   Stage = "verify"
	StageUnpack   Stage = "unpack"
	StageInstall  Stage = "install"
)

// Observer receives Install progress. It may be nil.
type Observer func(stage Stage, detail string)

// Install replaces the running executable with the build of rel for this
// platform after checking it against the release checksums.
func (c *Checker) Install(ctx context.Context, rel *Release, observe Observer) error {
	if observe == nil {
		observe = func(Stage, string) {}
	}

	asset, err := assetNameFor(c.binary, runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return err
	}
	archiveURL, ok := rel.Assets[asset]
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrNoAsset, asset, rel.Tag)
	}
	sumsURL, ok := rel.Assets[checksumsAsset]
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrNoAsset, checksumsAsset, rel.Tag)
	}

	observe(StageDownload, asset)
	archive, err := c.fetch(ctx, archiveURL)
	if err != nil {
		return fmt.Errorf("download %s: %w", asset, err)
	}
	sums, err := c.fetch(ctx, sumsURL)
	if err != nil {
		return fmt.Errorf("download %s: %w", checksumsAsset, err)
	}

	observe(StageVerify, asset)
	want, err := checksumFor(sums, asset)
	if err != nil {
		return err
	}
	if err := verifyChecksum(archive, want); err != nil {
		return err
	}

	observe(StageUnpack, c.binary)
	bin, err := unpack(archive, asset, executableName(c.binary, runtime.GOOS))
	if err != nil {
		return err
	}

	target, err := c.execPath()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	observe(StageInstall, target)
	return replaceExecutable(target, bin)
}

var releaseArch = map[string]string{
	"amd64": "x86_64",
	"arm64": "arm64",
	"386":   "i386",
}

// assetNameFor returns the release archive name for a platform. Darwin
// ships a single universal archive.
func assetNameFor(binary, goos, goarch string) (string, error) {
	if goos == "darwin" {
		return binary + "_Darwin_all.tar.gz", nil
	}
	arch, ok := releaseArch[goarch]
	if !ok {
		return "", fmt.Errorf("unsupported architecture: %s", goarch)
	}
	switch goos {
	case "linux":
		return fmt.Sprintf("%s_Linux_%s.tar.gz", binary, arch), nil
	case "windows":
		return fmt.Sprintf("%s_Windows_%s.zip", binary, arch), nil
	}
	return "", fmt.Errorf("unsupported operating system: %s", goos)
}

func executableName(binary, goos string) string {
	if goos == "windows" {
		return binary + ".exe"
	}
	return binary
}

func (c *Checker) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxDownload {
		return nil, fmt.Errorf("%s exceeds %d bytes", url, maxDownload)
	}
	return data, nil
}

// checksumFor finds asset in sha256sum output. Both text ("hash  name")
// and binary ("hash *name") lines are accepted.
func checksumFor(sums []byte, asset string) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(sums))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			continue
		}
		if strings.TrimPrefix(fields[1], "*") == asset {
			return strings.ToLower(fields[0]), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read checksums: %w", err)
	}
	return "", fmt.Errorf("%w: no entry for %s", ErrChecksum, asset)
}

func verifyChecksum(data []byte, wantHex string) error {
	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if got != wantHex {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksum, wantHex, got)
	}
	return nil
}

// unpack returns the regular file called name from a .zip or .tar.gz
// archive, at any depth.
func unpack(archive []byte, asset, name string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasSuffix(asset, ".zip"):
		data, err = unpackZip(archive, name)
	case strings.HasSuffix(asset, ".tar.gz"):
		data, err = unpackTarGz(archive, name)
	default:
		return nil, fmt.Errorf("unknown archive format: %s", asset)
	}
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", asset, err)
	}
	if data == nil {
		return nil, fmt.Errorf("unpack %s: %q not found", asset, name)
	}
	return data, nil
}

func unpackTarGz(archive []byte, name string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, err
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag == tar.TypeReg && path.Base(hdr.Name) == name {
			return io.ReadAll(io.LimitReader(tr, maxDownload))
		}
	}
}

func unpackZip(archive []byte, name string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || path.Base(f.Name) != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxDownload))
		_ = rc.Close()
		return data, err
	}
	return nil, nil
}

// replaceExecutable swaps target for data through a temp file in the same
// directory, so the rename stays on one filesystem. The mode of target is
// kept.
func replaceExecutable(target string, data []byte) error {
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat %s: %w", target, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("replace %s: %w", target, err)
	}
	return nil
}
