package transport

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestInbox_KeepsOnlyNewest(t *testing.T) {
	in := NewInbox()
	in.Put(Message{Payload: []byte("1")})
	in.Put(Message{Payload: []byte("2")})
	in.Put(Message{Payload: []byte("3")})

	m, err := in.Take(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", string(m.Payload))

	received, dropped := in.Counts()
	assert.EqualValues(t, 3, received)
	assert.EqualValues(t, 2, dropped)
}

func TestInbox_TakeHonoursContext(t *testing.T) {
	in := NewInbox()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := in.Take(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInbox_ConcurrentPutsNeverBlock(t *testing.T) {
	in := NewInbox()
	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func() {
			for i := 0; i < 1000; i++ {
				in.Put(Message{Payload: []byte{byte(i)}})
			}
			done <- struct{}{}
		}()
	}
	for g := 0; g < 4; g++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Put blocked")
		}
	}
	received, dropped := in.Counts()
	assert.EqualValues(t, 4000, received)
	assert.EqualValues(t, 3999, dropped)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestSubscriber_HandleCopiesPayload(t *testing.T) {
	in := NewInbox()
	s := NewSubscriber(MQTTOptions{Host: "localhost", Port: 1883, Prefix: "airtracker"}, in)
	assert.Equal(t, "airtracker/nearest", s.Topic())
	assert.Contains(t, s.opts.ClientID, "airtracker-")

	buf := []byte(`{"origin":"SEA"}`)
	s.handle(nil, fakeMessage{topic: s.Topic(), payload: buf})
	buf[2] = 'X'

	m, err := in.Take(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"origin":"SEA"}`, string(m.Payload))
	assert.Equal(t, "mqtt", m.Source)
	assert.EqualValues(t, 1, s.Messages())
}

func TestNearestTopic(t *testing.T) {
	assert.Equal(t, "airtracker/nearest", NearestTopic("airtracker"))
	assert.Equal(t, "home/air/nearest", NearestTopic("home/air/"))
}

func TestFileFeed_DeliversInitialAndRewrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nearest.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"v":1}`), 0o644))

	in := NewInbox()
	feed := NewFileFeed(path, in)
	feed.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	take := func() string {
		tctx, tcancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer tcancel()
		m, err := in.Take(tctx)
		require.NoError(t, err)
		return string(m.Payload)
	}

	assert.Equal(t, `{"v":1}`, take())

	require.NoError(t, os.WriteFile(path, []byte(`{"v":2}`), 0o644))
	assert.Equal(t, `{"v":2}`, take())

	// Replace by rename, as editors do.
	tmp := filepath.Join(dir, "nearest.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"v":3}`), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	assert.Equal(t, `{"v":3}`, take())
}

func TestFileFeed_MissingDirectoryFails(t *testing.T) {
	feed := NewFileFeed(filepath.Join(t.TempDir(), "nope", "nearest.json"), NewInbox())
	err := feed.Run(context.Background())
	assert.Error(t, err)
}
