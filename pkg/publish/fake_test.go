package publish

import (
	"errors"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/capmeter/pkg/sample"
)

type recordingSink struct {
	mu        sync.Mutex
	published []sample.Sample
	err       error
	closed    bool
	closeErr  error
}

func (s *recordingSink) Publish(v sample.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, v)
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closeErr
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

type registerCall struct {
	address, quantity uint16
	value             []byte
}

type fakeRegisters struct {
	calls []registerCall
	err   error
}

func (f *fakeRegisters) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	f.calls = append(f.calls, registerCall{address: address, quantity: quantity, value: value})
	return nil, f.err
}

type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Error() error { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

type publishCall struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	calls        []publishCall
	token        *fakeToken
	disconnected bool
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.calls = append(f.calls, publishCall{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	if f.token == nil {
		return &fakeToken{}
	}
	return f.token
}

func (f *fakePublisher) Disconnect(uint) {
	f.disconnected = true
}

var errBroken = errors.New("broken")
