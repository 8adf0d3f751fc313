package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/pkg/logger"
)

func TestPublishMovements_UnMensajePorMovimiento(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	var events []StockMovementEvent
	capture := func(val []byte) error {
		var e StockMovementEvent
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		events = append(events, e)
		return nil
	}
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(capture)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(capture)

	p := NewMovementPublisherWithProducer(producer, "movs", logger.Nop())
	at := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	err := p.PublishMovements(context.Background(), []entity.StockMovement{
		{ID: 1, ProductID: "p1", WarehouseID: "a", PreviousQuantity: 10, NewQuantity: 7, Type: entity.MovementTypeOUT, Description: "Transferencia a B: x", CreatedBy: "u1", CreatedAt: at},
		{ID: 2, ProductID: "p1", WarehouseID: "b", PreviousQuantity: 0, NewQuantity: 3, Type: entity.MovementTypeIN, Description: "Transferencia desde A: x", CreatedBy: "u1", CreatedAt: at},
	})
	require.NoError(t, err)
	require.NoError(t, producer.Close())

	require.Len(t, events, 2)
	assert.Equal(t, EventTypeStockMovement, events[0].EventType)
	assert.Equal(t, -3, events[0].Delta)
	assert.Equal(t, 3, events[1].Delta)
	assert.Equal(t, "IN", events[1].MovementType)
	assert.Equal(t, "u1", events[1].ActorUserID)
	assert.NotEqual(t, events[0].EventID, events[1].EventID)
}

func TestPublishMovements_ErrorDelBroker(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	p := NewMovementPublisherWithProducer(producer, "movs", logger.Nop())
	err := p.PublishMovements(context.Background(), []entity.StockMovement{{ID: 1, ProductID: "p1", WarehouseID: "a", NewQuantity: 1, Type: entity.MovementTypeIN}})
	require.Error(t, err)
	require.NoError(t, producer.Close())
}

func TestPublishMovements_VacioNoEnvia(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	p := NewMovementPublisherWithProducer(producer, "movs", nil)
	require.NoError(t, p.PublishMovements(context.Background(), nil))
	require.NoError(t, producer.Close())
}

func TestMessage_ClaveYHeaders(t *testing.T) {
	p := NewMovementPublisherWithProducer(mocks.NewSyncProducer(t, nil), "movs", nil)
	msg, err := p.message(&entity.StockMovement{ID: 9, ProductID: "p9", WarehouseID: "w", Type: entity.MovementTypeIN})
	require.NoError(t, err)
	key, err := msg.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "p9", string(key))
	assert.Equal(t, "movs", msg.Topic)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, EventTypeStockMovement, string(msg.Headers[0].Value))
}
