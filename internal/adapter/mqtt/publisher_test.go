package mqtt

import (
	"BiteBot/internal/app/engine"
	"encoding/json"
	"sync"
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	paho.Client
	mu           sync.Mutex
	connected    bool
	messages     []published
	disconnected bool
}

func (f *fakeClient) IsConnected() bool { return f.connected }

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return doneToken{}
}

func (f *fakeClient) Disconnect(uint) { f.disconnected = true }

type doneToken struct{ paho.Token }

func (doneToken) Error() error { return nil }

func TestObservePublishesJSON(t *testing.T) {
	c := &fakeClient{connected: true}
	p := newPublisher(c, "bitebot/", zap.NewNop().Sugar())

	p.Observe(engine.Event{Kind: engine.EventReact, TargetID: 4242, DisplayName: "WoW", Duration: 1500000000})

	require.Len(t, c.messages, 1)
	m := c.messages[0]
	assert.Equal(t, "bitebot/4242/react", m.topic)
	assert.Zero(t, m.qos)
	assert.False(t, m.retained)

	var ev engine.Event
	require.NoError(t, json.Unmarshal(m.payload, &ev))
	assert.Equal(t, uint32(4242), ev.TargetID)
	assert.Equal(t, "WoW", ev.DisplayName)
}

func TestObserveDropsWhenDisconnected(t *testing.T) {
	c := &fakeClient{}
	p := newPublisher(c, "bitebot", zap.NewNop().Sugar())
	p.Observe(engine.Event{Kind: engine.EventCast, TargetID: 1})
	assert.Empty(t, c.messages)
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "root/7/bite", topicFor("root", engine.Event{Kind: engine.EventBite, TargetID: 7}))
	assert.Equal(t, "root/engine/stopped", topicFor("root", engine.Event{Kind: engine.EventStopped}))
}

func TestClose(t *testing.T) {
	c := &fakeClient{connected: true}
	newPublisher(c, "x", zap.NewNop().Sugar()).Close()
	assert.True(t, c.disconnected)

	idle := &fakeClient{}
	newPublisher(idle, "x", zap.NewNop().Sugar()).Close()
	assert.False(t, idle.disconnected)
}
