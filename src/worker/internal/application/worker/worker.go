package worker

import (
	"sync"

	"github.com/apex/log"
	"github.com/rabbitmq/amqp091-go"
	"github.com/veedubyou/stem-remixer/src/worker/internal/application/jobs/job_router"
	"github.com/veedubyou/stem-remixer/src/worker/internal/lib/cerr"
	"golang.org/x/sync/errgroup"
)

type MessageChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

type QueueWorker struct {
	channel     MessageChannel
	channelLock sync.Mutex
	jobRouter   job_router.MessageHandler
	queueName   string
	concurrency int
}

func NewQueueWorker(channel MessageChannel, queueName string, jobRouter job_router.MessageHandler, concurrency int) *QueueWorker {
	if concurrency < 1 {
		concurrency = 1
	}

	return &QueueWorker{
		channel:     channel,
		queueName:   queueName,
		jobRouter:   jobRouter,
		concurrency: concurrency,
	}
}

func NewQueueWorkerFromConnection(conn *amqp091.Connection, queueName string, jobRouter job_router.MessageHandler, concurrency int) (*QueueWorker, error) {
	rabbitChannel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, cerr.Wrap(err).Error("Failed to get channel")
	}

	queue, err := rabbitChannel.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)

	if err != nil {
		_ = rabbitChannel.Close()
		return nil, cerr.Wrap(err).Error("Failed to declare queue")
	}

	return NewQueueWorker(rabbitChannel, queue.Name, jobRouter, concurrency), nil
}

// Start consumes until the channel closes, running up to concurrency jobs at once.
// The broker never hands over more unacked messages than that.
func (q *QueueWorker) Start() error {
	log.WithField("concurrency", q.concurrency).Info("Starting worker")

	q.channelLock.Lock()
	if q.channel == nil {
		q.channelLock.Unlock()
		return cerr.Error("Worker has been stopped")
	}

	channel := q.channel
	defer channel.Close()

	if err := channel.Qos(q.concurrency, 0, false); err != nil {
		q.channelLock.Unlock()
		return cerr.Field("prefetch", q.concurrency).Wrap(err).Error("Failed to set channel prefetch")
	}

	messageStream, err := channel.Consume(
		q.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	q.channelLock.Unlock()

	if err != nil {
		return cerr.Field("queue_name", q.queueName).
			Wrap(err).Error("Failed to start consuming from channel")
	}

	group := errgroup.Group{}
	group.SetLimit(q.concurrency)

	for message := range messageStream {
		message := message
		group.Go(func() error {
			q.handle(message)
			return nil
		})
	}

	return group.Wait()
}

func (q *QueueWorker) handle(message amqp091.Delivery) {
	logger := log.WithField("message_type", message.Type)
	logger.Info("Handling message")

	err := q.jobRouter.HandleMessage(message)
	if err != nil {
		err = cerr.Field("message_type", message.Type).
			Wrap(err).Error("Failed to process message")

		cerr.Log(err)

		if err = message.Nack(false, false); err != nil {
			logger.Error("Failed to nack message")
		}
	} else {
		logger.Info("Successfully processed message")
		if err = message.Ack(false); err != nil {
			logger.Error("Failed to ack message")
		}
	}
}

func (q *QueueWorker) Stop() {
	q.channelLock.Lock()
	defer q.channelLock.Unlock()

	if q.channel == nil {
		return
	}

	_ = q.channel.Close()
	q.channel = nil
}
