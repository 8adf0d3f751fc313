package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-stock/internal/application/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/pkg/logger"
)

var _ inventory.MovementPublisher = (*MovementPublisher)(nil)

// MovementPublisher publica movimientos de stock en Kafka.
type MovementPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
	now      func() time.Time
}

// NewProducerConfig configuración del productor síncrono.
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = "inventario-stock"
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000
	return config
}

// NewMovementPublisher conecta con los brokers.
func NewMovementPublisher(brokers []string, topic string, log *logger.Logger) (*MovementPublisher, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	p := NewMovementPublisherWithProducer(producer, topic, log)
	p.log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("publicador de movimientos inicializado")
	return p, nil
}

// NewMovementPublisherWithProducer usa un productor ya creado.
func NewMovementPublisherWithProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) *MovementPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &MovementPublisher{producer: producer, topic: topic, log: log, now: time.Now}
}

// PublishMovements envía un mensaje por movimiento, con clave product_id para conservar el orden por producto.
func (p *MovementPublisher) PublishMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msgs := make([]*sarama.ProducerMessage, 0, len(movements))
	for i := range movements {
		msg, err := p.message(&movements[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.producer.SendMessages(msgs); err != nil {
		p.log.Error().Err(err).Str("topic", p.topic).Int("count", len(msgs)).Msg("kafka: fallo publicando movimientos")
		return fmt.Errorf("kafka send: %w", err)
	}
	p.log.Debug().Str("topic", p.topic).Int("count", len(msgs)).Msg("movimientos publicados")
	return nil
}

func (p *MovementPublisher) message(m *entity.StockMovement) (*sarama.ProducerMessage, error) {
	event := StockMovementEvent{
		EventID:          uuid.NewString(),
		EventType:        EventTypeStockMovement,
		MovementID:       m.ID,
		ProductID:        m.ProductID,
		WarehouseID:      m.WarehouseID,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Delta:            m.Delta(),
		MovementType:     m.Type,
		Description:      m.Description,
		ActorUserID:      m.CreatedBy,
		OccurredAt:       m.CreatedAt,
		Timestamp:        p.now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal evento: %w", err)
	}
	return &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(m.ProductID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(EventTypeStockMovement)},
			{Key: []byte("event_id"), Value: []byte(event.EventID)},
		},
	}, nil
}

// Close cierra el productor.
func (p *MovementPublisher) Close() error {
	return p.producer.Close()
}
