package cifar10

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record builds one binary record whose pixels all equal fill.
func record(label, fill byte) []byte {
	r := bytes.Repeat([]byte{fill}, recordBytes)
	r[0] = label
	return r
}

func writeSplits(t *testing.T, root string, perFile int) {
	t.Helper()
	dir := filepath.Join(root, BatchDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	for f, name := range append(append([]string{}, TrainFiles...), TestFiles...) {
		var buf bytes.Buffer
		for i := 0; i < perFile; i++ {
			buf.Write(record(byte((f+i)%NumClasses), byte(10*f+i)))
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
	}
}

func TestReadBatch(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(record(3, 7))
	buf.Write(record(9, 200))

	images, labels, err := ReadBatch(&buf)
	require.NoError(t, err)
	assert.Equal(t, []uint8{3, 9}, labels)
	require.Len(t, images, 2)
	assert.Len(t, images[0], imageBytes)
	assert.Equal(t, byte(200), images[1][imageBytes-1])
}

func TestReadBatch_Truncated(t *testing.T) {
	r := record(1, 1)
	_, _, err := ReadBatch(bytes.NewReader(append(r, r[:100]...)))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestReadBatch_BadLabel(t *testing.T) {
	_, _, err := ReadBatch(bytes.NewReader(record(10, 0)))
	assert.ErrorIs(t, err, ErrLabel)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeSplits(t, root, 4)

	trainSet, err := Load(root, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, trainSet.Len())

	testSet, err := Load(root, false, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, testSet.Len())
	_, label, err := testSet.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int32(5), label, "test file is the sixth written")

	img, label, err := trainSet.Get(5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), label)
	assert.Equal(t, 3, img.Channels)
	assert.Equal(t, 32, img.Height)
	assert.Equal(t, float32(11), img.Pix[0])

	_, _, err = trainSet.Get(20)
	assert.ErrorIs(t, err, ErrIndex)

	counts := trainSet.ClassCounts()
	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 20, total)
}

func TestLoad_MaxSamples(t *testing.T) {
	root := t.TempDir()
	writeSplits(t, root, 4)

	ds, err := Load(root, true, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, ds.Len())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir(), true, 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func archive(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	require.NoError(t, tw.WriteHeader(&tar.Header{Name: BatchDir + "/", Typeflag: tar.TypeDir, Mode: 0o755}))
	for name, body := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(body)),
		}))
		_, err := tw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func fullArchive(t *testing.T) []byte {
	entries := map[string][]byte{}
	for _, name := range append(append([]string{}, TrainFiles...), TestFiles...) {
		entries[BatchDir+"/"+name] = record(1, 1)
	}
	entries[BatchDir+"/batches.meta.txt"] = []byte("airplane\n")
	return archive(t, entries)
}

func TestDownloader_Fetch(t *testing.T) {
	body := fullArchive(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	root := t.TempDir()
	var out bytes.Buffer
	d := &Downloader{URL: srv.URL, Client: srv.Client(), Output: &out}

	require.NoError(t, d.Fetch(context.Background(), root))
	assert.True(t, Exists(root))
	assert.Contains(t, out.String(), "Extracted 7 files")

	require.NoError(t, d.Fetch(context.Background(), root))
	assert.Equal(t, int32(1), hits.Load(), "second fetch finds the files on disk")

	ds, err := Load(root, true, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, ds.Len())
}

func TestDownloader_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d := &Downloader{URL: srv.URL, Client: srv.Client()}
	err := d.Fetch(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestDownloader_IncompleteArchive(t *testing.T) {
	body := archive(t, map[string][]byte{BatchDir + "/data_batch_1.bin": record(0, 0)})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	d := &Downloader{URL: srv.URL, Client: srv.Client()}
	err := d.Fetch(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not contain")
}

func TestExtract_RejectsTraversal(t *testing.T) {
	body := archive(t, map[string][]byte{"../evil.bin": []byte("x")})
	root := t.TempDir()

	_, err := Extract(bytes.NewReader(body), root)
	assert.ErrorIs(t, err, ErrUnsafePath)

	_, statErr := os.Stat(filepath.Join(filepath.Dir(root), "evil.bin"))
	assert.True(t, os.IsNotExist(statErr))
}
