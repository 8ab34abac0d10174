package main

import (
	"context"
	"crypto/rand"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRandomFile(t *testing.T, path string, size int) []byte {
	t.Helper()

	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return data
}

func runCopy(t *testing.T, app copyApp, from, to string) {
	t.Helper()

	src, err := os.Open(from)
	require.NoError(t, err)

	dst, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	require.NoError(t, err)

	app.Source, app.Target = src, dst
	require.NoError(t, app.Run(context.Background()))
}

func TestCopyApp(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.bin")
	data := writeRandomFile(t, srcPath, 100_000+17)

	mtime := time.Date(2020, 5, 4, 3, 2, 1, 0, time.UTC)
	require.NoError(t, os.Chtimes(srcPath, mtime, mtime))

	dstPath := filepath.Join(dir, "dst.bin")
	runCopy(t, copyApp{
		TransferOptions: TransferOptions{BufferSize: 4096, BufferCount: 3, Progress: progressLog},
		PreserveTimes:   true,
	}, srcPath, dstPath)

	got, err := os.ReadFile(dstPath)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	st, err := os.Stat(dstPath)
	require.NoError(t, err)
	assert.True(t, mtime.Equal(st.ModTime()), "expected mtime %s, got %s", mtime, st.ModTime())
}

func TestCopyAppLZ4RoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "src.txt")
	data := []byte{}
	for i := 0; i < 2000; i++ {
		data = append(data, "compressible line of text\n"...)
	}
	require.NoError(t, os.WriteFile(srcPath, data, 0o644))

	opts := TransferOptions{BufferSize: 1000, BufferCount: 2, Progress: progressNone}

	compressedPath := filepath.Join(dir, "src.txt.lz4")
	runCopy(t, copyApp{TransferOptions: opts, Compress: true}, srcPath, compressedPath)

	compressed, err := os.ReadFile(compressedPath)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))

	outPath := filepath.Join(dir, "out.txt")
	runCopy(t, copyApp{TransferOptions: opts, Decompress: true}, compressedPath, outPath)

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestSendReceive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := listenTCP("127.0.0.1:0")
	require.NoError(t, err)

	root := t.TempDir()
	receiver := receiveApp{
		Root:            root,
		IdleTimeout:     5 * time.Second,
		TransferOptions: TransferOptions{BufferSize: 512, BufferCount: 4, Progress: progressNone},
	}

	served := make(chan error, 1)
	go func() { served <- receiver.serve(ctx, ln) }()

	srcPath := filepath.Join(t.TempDir(), "payload.bin")
	data := writeRandomFile(t, srcPath, 64*1024+3)

	src, err := os.Open(srcPath)
	require.NoError(t, err)

	sender := sendApp{
		Source:          src,
		Addr:            ln.Addr().String(),
		DialTimeout:     5 * time.Second,
		TransferOptions: TransferOptions{BufferSize: 1000, BufferCount: 2, Progress: progressNone},
	}
	require.NoError(t, sender.Run(ctx))

	assert.Eventually(t, func() bool {
		entries, err := os.ReadDir(root)
		if err != nil || len(entries) != 1 {
			return false
		}

		got, err := os.ReadFile(filepath.Join(root, entries[0].Name()))
		return err == nil && assert.ObjectsAreEqual(data, got)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, ln.Close())

	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("receiver did not stop")
	}
}

func TestListenTCPv4(t *testing.T) {
	ln, err := listenTCP("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr, ok := ln.Addr().(*net.TCPAddr)
	require.True(t, ok)
	assert.NotNil(t, addr.IP.To4())
}
