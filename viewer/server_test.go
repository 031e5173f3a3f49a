package viewer

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/olympuswifi/liveview"
	"github.com/opd-ai/olympuswifi/rtp"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New("Test Camera")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestSnapshotBeforeFirstFrame(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/frame.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSnapshot(t *testing.T) {
	s, ts := testServer(t)

	jpeg := []byte{0xFF, 0xD8, 'i', 'm', 'g', 0xFF, 0xD9}
	s.Display(liveview.RenderedFrame{JPEG: jpeg, Orientation: rtp.OrientationNormal})

	resp, err := http.Get(ts.URL + "/frame.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, jpeg, body)
}

func TestDisplayCopiesFrame(t *testing.T) {
	s, ts := testServer(t)

	jpeg := []byte{0xFF, 0xD8, 'x', 0xFF, 0xD9}
	s.Display(liveview.RenderedFrame{JPEG: jpeg})
	jpeg[2] = 'y' // caller may reuse its buffer

	resp, err := http.Get(ts.URL + "/frame.jpg")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, byte('x'), body[2])
}

func TestStatus(t *testing.T) {
	s, ts := testServer(t)

	s.Display(liveview.RenderedFrame{
		JPEG:        []byte{0xFF, 0xD8, 0xFF, 0xD9},
		Orientation: rtp.OrientationRotate90CW,
	})
	s.Display(liveview.RenderedFrame{
		JPEG:        []byte{0xFF, 0xD8, 0xFF, 0xD9},
		Orientation: rtp.OrientationRotate90CW,
	})

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status struct {
		Session     string  `json:"session"`
		Title       string  `json:"title"`
		Frames      float64 `json:"frames"`
		Clients     float64 `json:"clients"`
		Orientation string  `json:"orientation"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))

	assert.NotEmpty(t, status.Session)
	assert.Equal(t, "Test Camera", status.Title)
	assert.Equal(t, float64(2), status.Frames)
	assert.Equal(t, "rotate-90-cw", status.Orientation)
}

// TestStreamHeadersBeforeFirstFrame connects while no frames are
// flowing: the multipart response headers must arrive immediately, not
// ride along with the first frame.
func TestStreamHeadersBeforeFirstFrame(t *testing.T) {
	_, ts := testServer(t)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(ts.URL + "/stream")
	require.NoError(t, err, "response headers must be flushed before any frame")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "multipart/x-mixed-replace; boundary=olympusframe",
		resp.Header.Get("Content-Type"))
}

func TestStream(t *testing.T) {
	s, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "multipart/x-mixed-replace; boundary=olympusframe",
		resp.Header.Get("Content-Type"))

	// Feed frames until the stream handler has registered this client.
	done := make(chan struct{})
	defer close(done)
	go func() {
		jpeg := []byte{0xFF, 0xD8, 's', 't', 'r', 0xFF, 0xD9}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.Display(liveview.RenderedFrame{JPEG: jpeg})
			}
		}
	}()

	reader := bufio.NewReader(resp.Body)
	boundary, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "--olympusframe", strings.TrimSpace(boundary))

	contentType, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Content-Type: image/jpeg", strings.TrimSpace(contentType))

	contentLength, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "Content-Length: 7", strings.TrimSpace(contentLength))

	blank, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "", strings.TrimSpace(blank))

	frame := make([]byte, 7)
	_, err = io.ReadFull(reader, frame)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 's', 't', 'r', 0xFF, 0xD9}, frame)
}

func TestIndex(t *testing.T) {
	_, ts := testServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<title>Test Camera</title>")
	assert.Contains(t, string(body), "src=\"/stream\"")
}
