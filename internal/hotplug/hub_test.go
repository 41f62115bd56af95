package hotplug

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/devsync/internal/monitoring"
	"github.com/banshee-data/devsync/internal/testutil"
	"github.com/banshee-data/devsync/internal/timeutil"
)

func quietLogs(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.Logf = original })
	monitoring.SetLogger(nil)
}

func cam(key string) DeviceInfo {
	return DeviceInfo{Key: Key(key), Name: "camera " + key, Path: "/dev/" + key}
}

func TestHub_SubscribePublishUnsubscribe(t *testing.T) {
	quietLogs(t)
	h := NewHub()

	var got [][]DeviceInfo
	id1, err := h.Subscribe(func(removed, added []DeviceInfo) { got = append(got, removed) })
	require.NoError(t, err)
	id2, err := h.Subscribe(func(removed, added []DeviceInfo) {})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, h.SubscriberCount())

	h.Publish([]DeviceInfo{cam("a")}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, Key("a"), got[0][0].Key)

	h.Unsubscribe(id1)
	h.Unsubscribe("not-an-id")
	h.Publish([]DeviceInfo{cam("b")}, nil)
	assert.Len(t, got, 1, "unsubscribed callback must not run")
	assert.Equal(t, 1, h.SubscriberCount())
}

func TestHub_CallbackMayUnsubscribe(t *testing.T) {
	quietLogs(t)
	h := NewHub()

	var id string
	calls := 0
	id, err := h.Subscribe(func(removed, added []DeviceInfo) {
		calls++
		h.Unsubscribe(id)
	})
	require.NoError(t, err)

	h.Publish(nil, []DeviceInfo{cam("a")})
	h.Publish(nil, []DeviceInfo{cam("b")})
	assert.Equal(t, 1, calls)
}

func TestHub_TracksDevices(t *testing.T) {
	quietLogs(t)
	h := NewHub()

	h.Publish(nil, []DeviceInfo{cam("b"), cam("a")})
	h.Publish([]DeviceInfo{cam("b")}, []DeviceInfo{cam("c")})

	devices := h.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, Key("a"), devices[0].Key)
	assert.Equal(t, Key("c"), devices[1].Key)
}

func TestHub_Close(t *testing.T) {
	quietLogs(t)
	h := NewHub()

	called := false
	_, err := h.Subscribe(func(removed, added []DeviceInfo) { called = true })
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, err = h.Subscribe(func(removed, added []DeviceInfo) {})
	assert.True(t, errors.Is(err, ErrHubClosed))

	h.Publish(nil, []DeviceInfo{cam("a")})
	assert.False(t, called)
}

func TestHub_ConcurrentPublish(t *testing.T) {
	quietLogs(t)
	h := NewHub()

	var mu sync.Mutex
	count := 0
	_, err := h.Subscribe(func(removed, added []DeviceInfo) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Publish(nil, []DeviceInfo{cam("x")})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, count)
}

type fakeLister struct {
	mu      sync.Mutex
	devices []DeviceInfo
	err     error
}

func (f *fakeLister) set(ds ...DeviceInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = ds
}

func (f *fakeLister) list() ([]DeviceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DeviceInfo(nil), f.devices...), f.err
}

func TestWatcher_ScanPublishesDiff(t *testing.T) {
	quietLogs(t)
	h := NewHub()
	lister := &fakeLister{}
	w := NewWatcher(h, lister.list, WatcherOptions{})

	type change struct{ removed, added []DeviceInfo }
	var changes []change
	_, err := h.Subscribe(func(removed, added []DeviceInfo) {
		changes = append(changes, change{removed, added})
	})
	require.NoError(t, err)

	lister.set(cam("b"), cam("a"))
	require.NoError(t, w.Scan())
	require.NoError(t, w.Scan()) // no change, no publish

	lister.set(cam("a"), cam("c"))
	require.NoError(t, w.Scan())

	require.Len(t, changes, 2)
	assert.Empty(t, changes[0].removed)
	assert.Equal(t, []DeviceInfo{cam("a"), cam("b")}, changes[0].added)
	assert.Equal(t, []DeviceInfo{cam("b")}, changes[1].removed)
	assert.Equal(t, []DeviceInfo{cam("c")}, changes[1].added)
}

func TestWatcher_ScanCollapsesRepeatedKeys(t *testing.T) {
	quietLogs(t)
	h := NewHub()
	lister := &fakeLister{}
	w := NewWatcher(h, lister.list, WatcherOptions{})

	var added [][]DeviceInfo
	_, err := h.Subscribe(func(removed, a []DeviceInfo) { added = append(added, a) })
	require.NoError(t, err)

	second := cam("a")
	second.Path = "/dev/a-if02"
	lister.set(cam("a"), second, cam("b"))
	require.NoError(t, w.Scan())

	require.Len(t, added, 1)
	assert.Equal(t, []DeviceInfo{cam("a"), cam("b")}, added[0])

	lister.set()
	require.NoError(t, w.Scan())
	assert.Len(t, h.Devices(), 0)
}

func TestWatcher_ScanError(t *testing.T) {
	quietLogs(t)
	lister := &fakeLister{err: errors.New("usb bus unavailable")}
	w := NewWatcher(NewHub(), lister.list, WatcherOptions{})
	assert.Error(t, w.Scan())
}

func TestWatcher_RunPollsOnTicks(t *testing.T) {
	quietLogs(t)
	h := NewHub()
	lister := &fakeLister{}
	lister.set(cam("a"))
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	w := NewWatcher(h, lister.list, WatcherOptions{Interval: time.Second, Clock: clock})

	published := make(chan []DeviceInfo, 4)
	_, err := h.Subscribe(func(removed, added []DeviceInfo) {
		published <- removed
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case removed := <-published:
		assert.Empty(t, removed)
	case <-time.After(time.Second):
		t.Fatal("initial scan did not publish")
	}

	lister.set()
	clock.Advance(time.Second)
	select {
	case removed := <-published:
		assert.Equal(t, []DeviceInfo{cam("a")}, removed)
	case <-time.After(time.Second):
		t.Fatal("tick did not trigger a scan")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

// localHostRequest makes the request appear to come from localhost so
// tsweb's debug access check lets it through.
func localHostRequest(method, path string) *http.Request {
	req := testutil.NewTestRequest(method, path)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

func TestAttachAdminRoutes(t *testing.T) {
	quietLogs(t)
	h := NewHub()
	_, err := h.Subscribe(func(removed, added []DeviceInfo) {})
	require.NoError(t, err)
	h.Publish(nil, []DeviceInfo{cam("cam0")})

	mux := http.NewServeMux()
	h.AttachAdminRoutes(mux)

	rec := testutil.NewTestRecorder()
	mux.ServeHTTP(rec, localHostRequest(http.MethodGet, "/debug/hotplug"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "cam0"), "body: %s", body)

	rec = testutil.NewTestRecorder()
	mux.ServeHTTP(rec, localHostRequest(http.MethodGet, "/debug/hotplug-api"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var resp struct {
		Subscribers int          `json:"subscribers"`
		Devices     []DeviceInfo `json:"devices"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.Subscribers)
	assert.Equal(t, []DeviceInfo{cam("cam0")}, resp.Devices)

	rec = testutil.NewTestRecorder()
	mux.ServeHTTP(rec, localHostRequest(http.MethodPost, "/debug/hotplug-api"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

