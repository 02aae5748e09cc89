package testing

import (
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stem-remixer/src/shared/lib/rabbitmq"
)

var ErrPublisherUnavailable = errors.New("publisher is unavailable")

type ReceivedMessage struct {
	Type    string
	Message map[string]any
}

var _ rabbitmq.Publisher = &RecordingPublisher{}

// RecordingPublisher keeps everything published to it instead of sending it.
type RecordingPublisher struct {
	Unavailable bool

	mutex    sync.Mutex
	received []ReceivedMessage
	err      error
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (r *RecordingPublisher) Publish(msg amqp091.Publishing) error {
	if r.Unavailable {
		return ErrPublisherUnavailable
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	body := map[string]any{}
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		r.err = err
		return nil
	}

	r.received = append(r.received, ReceivedMessage{
		Type:    msg.Type,
		Message: body,
	})
	return nil
}

func (r *RecordingPublisher) Unload() ([]ReceivedMessage, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.err != nil {
		return nil, r.err
	}

	received := r.received
	r.received = nil
	return received, nil
}
