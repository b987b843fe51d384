package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/voxhire/interview-service/pkg/log"
)

const roomEventsTopic = "chat-room-events"

// channelToKey extracts the partition key (room ID) from a channel name.
//
//	"chat:room:ROOM123:events" → key: "ROOM123"
func channelToKey(channel string) (string, error) {
	// Expected format: chat:room:{roomID}:events
	parts := strings.Split(channel, ":")
	if len(parts) != 4 || parts[0] != "chat" || parts[1] != "room" {
		return "", fmt.Errorf("invalid channel format: %s", channel)
	}
	return parts[2], nil
}

// kafkaSubscription tracks a single consumer subscription.
type kafkaSubscription struct {
	consumer *kafka.Consumer
	cancel   context.CancelFunc
}

// KafkaPubSub implements PubSub using Apache Kafka. All room events share
// one topic, keyed by room ID so per-room ordering is preserved.
type KafkaPubSub struct {
	producer      *kafka.Producer
	subscriptions map[string]*kafkaSubscription
	config        KafkaConfig
	mu            sync.Mutex
}

// NewKafkaPubSub creates a new Kafka-based PubSub instance.
func NewKafkaPubSub(cfg KafkaConfig) (*KafkaPubSub, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kps := &KafkaPubSub{
		producer:      p,
		subscriptions: make(map[string]*kafkaSubscription),
		config:        cfg,
	}

	go kps.deliveryReportHandler()

	if err := kps.ensureTopic(); err != nil {
		logger := log.L()
		logger.Warn().Err(err).Msg("failed to ensure kafka topic (may already exist)")
	}

	return kps, nil
}

// ensureTopic creates the room events topic if it doesn't exist.
func (k *KafkaPubSub) ensureTopic() error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": k.config.Brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	partitions := k.config.Partitions
	if partitions <= 0 {
		partitions = 4
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = admin.CreateTopics(ctx, []kafka.TopicSpecification{
		{
			Topic:             roomEventsTopic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		},
	})
	return err
}

// deliveryReportHandler drains producer delivery reports.
func (k *KafkaPubSub) deliveryReportHandler() {
	for e := range k.producer.Events() {
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			logger := log.L()
			logger.Warn().Err(m.TopicPartition.Error).Msg("kafka delivery failed")
		}
	}
}

// Publish publishes an event to the room events topic.
func (k *KafkaPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	key, err := channelToKey(channel)
	if err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	topic := roomEventsTopic
	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          data,
	}, nil)
}

// Subscribe subscribes to a single room's events.
func (k *KafkaPubSub) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	roomID, err := channelToKey(channel)
	if err != nil {
		return nil, err
	}
	return k.subscribe(ctx, channel, roomID)
}

// SubscribePattern subscribes to all room events. The pattern is accepted
// for interface parity; Kafka consumers read the whole topic.
func (k *KafkaPubSub) SubscribePattern(ctx context.Context, pattern string) (<-chan *Event, error) {
	return k.subscribe(ctx, pattern, "")
}

func (k *KafkaPubSub) subscribe(ctx context.Context, name, roomFilter string) (<-chan *Event, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": k.config.Brokers,
		"group.id":          fmt.Sprintf("%s-%s", k.config.GroupID, name),
		"auto.offset.reset": "latest",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	if err := consumer.Subscribe(roomEventsTopic, nil); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("failed to subscribe to topic: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)

	k.mu.Lock()
	k.subscriptions[name] = &kafkaSubscription{consumer: consumer, cancel: cancel}
	k.mu.Unlock()

	eventCh := make(chan *Event, 100)

	go func() {
		defer close(eventCh)
		for {
			select {
			case <-subCtx.Done():
				return
			default:
			}

			msg, err := consumer.ReadMessage(500 * time.Millisecond)
			if err != nil {
				continue // timeouts and transient errors
			}

			if roomFilter != "" && string(msg.Key) != roomFilter {
				continue
			}

			var event Event
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				continue
			}

			select {
			case eventCh <- &event:
			case <-subCtx.Done():
				return
			default:
				// Channel full, skip message
			}
		}
	}()

	return eventCh, nil
}

// Unsubscribe stops a subscription.
func (k *KafkaPubSub) Unsubscribe(ctx context.Context, channel string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if sub, ok := k.subscriptions[channel]; ok {
		sub.cancel()
		if err := sub.consumer.Close(); err != nil {
			return err
		}
		delete(k.subscriptions, channel)
	}

	return nil
}

// Close stops all subscriptions and flushes the producer.
func (k *KafkaPubSub) Close() error {
	k.mu.Lock()
	for _, sub := range k.subscriptions {
		sub.cancel()
		sub.consumer.Close()
	}
	k.subscriptions = make(map[string]*kafkaSubscription)
	k.mu.Unlock()

	k.producer.Flush(5000)
	k.producer.Close()
	return nil
}
