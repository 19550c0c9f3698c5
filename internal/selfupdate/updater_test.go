package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetNameFor(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
	}{
		{"darwin", "arm64", "flagz_Darwin_all.tar.gz"},
		{"darwin", "mips", "flagz_Darwin_all.tar.gz"},
		{"linux", "amd64", "flagz_Linux_x86_64.tar.gz"},
		{"linux", "386", "flagz_Linux_i386.tar.gz"},
		{"windows", "arm64", "flagz_Windows_arm64.zip"},
		{"freebsd", "amd64", ""},
		{"linux", "riscv64", ""},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := assetNameFor("flagz", tt.goos, tt.goarch)
			if tt.want == "" {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecksumFor(t *testing.T) {
	sums := []byte("AB12  flagz_Linux_x86_64.tar.gz\n" +
		"cd34 *flagz_Windows_x86_64.zip\n" +
		"not a checksum line\n")

	got, err := checksumFor(sums, "flagz_Linux_x86_64.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, "ab12", got)

	got, err = checksumFor(sums, "flagz_Windows_x86_64.zip")
	require.NoError(t, err)
	assert.Equal(t, "cd34", got)

	_, err = checksumFor(sums, "flagz_Darwin_all.tar.gz")
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestUnpack(t *testing.T) {
	bin := []byte("flagz build")

	t.Run("tar.gz nested", func(t *testing.T) {
		got, err := unpack(tarGz(t, "flagz_1.0.0/flagz", bin), "a.tar.gz", "flagz")
		require.NoError(t, err)
		assert.Equal(t, bin, got)
	})

	t.Run("zip", func(t *testing.T) {
		got, err := unpack(zipped(t, "flagz.exe", bin), "a.zip", "flagz.exe")
		require.NoError(t, err)
		assert.Equal(t, bin, got)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := unpack(tarGz(t, "README.md", bin), "a.tar.gz", "flagz")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := unpack(bin, "a.rar", "flagz")
		assert.Error(t, err)
	})
}

func TestReplaceExecutable(t *testing.T) {
	target := filepath.Join(t.TempDir(), "flagz")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o750))

	require.NoError(t, replaceExecutable(target, []byte("new")))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(target)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

// releaseServer serves a release API document and its assets for the
// running platform.
type releaseServer struct {
	*httptest.Server
	asset   string
	archive []byte
	sums    string
	omit    string
}

func newReleaseServer(t *testing.T, bin []byte) *releaseServer {
	t.Helper()
	asset, err := assetNameFor("flagz", runtime.GOOS, runtime.GOARCH)
	if err != nil {
		t.Skipf("no release asset for %s/%s", runtime.GOOS, runtime.GOARCH)
	}

	rs := &releaseServer{asset: asset}
	if strings.HasSuffix(asset, ".zip") {
		rs.archive = zipped(t, executableName("flagz", runtime.GOOS), bin)
	} else {
		rs.archive = tarGz(t, "flagz", bin)
	}
	sum := sha256.Sum256(rs.archive)
	rs.sums = hex.EncodeToString(sum[:]) + "  " + asset + "\n"

	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/abhisek/flagz/releases/latest":
			type assetDoc struct {
				Name string `json:"name"`
				URL  string `json:"browser_download_url"`
			}
			var assets []assetDoc
			for _, name := range []string{asset, checksumsAsset} {
				if name != rs.omit {
					assets = append(assets, assetDoc{name, rs.URL + "/download/" + name})
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"tag_name": "v2.0.0",
				"html_url": "https://example.com/v2.0.0",
				"assets":   assets,
			})
		case "/download/" + asset:
			_, _ = w.Write(rs.archive)
		case "/download/" + checksumsAsset:
			_, _ = w.Write([]byte(rs.sums))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(rs.Close)
	return rs
}

func TestInstall(t *testing.T) {
	bin := []byte("flagz v2")

	install := func(t *testing.T, rs *releaseServer) (string, []Stage, error) {
		t.Helper()
		target := filepath.Join(t.TempDir(), "flagz")
		require.NoError(t, os.WriteFile(target, []byte("v1"), 0o755))

		c := NewChecker(WithBaseURL(rs.URL), withExecPath(func() (string, error) { return target, nil }))
		res, err := c.Check(context.Background(), &CheckInput{Version: "v1.0.0"})
		require.NoError(t, err)
		require.True(t, res.UpdateAvailable)

		var stages []Stage
		err = c.Install(context.Background(), res.Release, func(s Stage, _ string) {
			stages = append(stages, s)
		})
		return target, stages, err
	}

	t.Run("replaces executable", func(t *testing.T) {
		target, stages, err := install(t, newReleaseServer(t, bin))
		require.NoError(t, err)

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, bin, got)
		assert.Equal(t, []Stage{StageDownload, StageVerify, StageUnpack, StageInstall}, stages)
	})

	t.Run("checksum mismatch keeps old binary", func(t *testing.T) {
		rs := newReleaseServer(t, bin)
		rs.sums = strings.Repeat("0", 64) + "  " + rs.asset + "\n"

		target, _, err := install(t, rs)
		assert.ErrorIs(t, err, ErrChecksum)

		got, readErr := os.ReadFile(target)
		require.NoError(t, readErr)
		assert.Equal(t, "v1", string(got))
	})

	t.Run("platform asset missing", func(t *testing.T) {
		rs := newReleaseServer(t, bin)
		rs.omit = rs.asset

		_, stages, err := install(t, rs)
		assert.ErrorIs(t, err, ErrNoAsset)
		assert.Empty(t, stages)
	})

	t.Run("checksums missing", func(t *testing.T) {
		rs := newReleaseServer(t, bin)
		rs.omit = checksumsAsset

		_, _, err := install(t, rs)
		assert.ErrorIs(t, err, ErrNoAsset)
	})

	t.Run("download failure", func(t *testing.T) {
		rs := newReleaseServer(t, bin)
		rel := &Release{Tag: "v2.0.0", Assets: map[string]string{
			rs.asset:       rs.URL + "/gone",
			checksumsAsset: rs.URL + "/download/" + checksumsAsset,
		}}

		err := NewChecker().Install(context.Background(), rel, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 404")
	})
}

func tarGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     name,
		Mode:     0o755,
		Size:     int64(len(content)),
		Typeflag: tar.TypeReg,
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func zipped(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
