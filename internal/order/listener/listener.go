package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
)

const (
	EventOrderPlaced       = "OrderPlaced"
	EventOrderCancelled    = "OrderCancelled"
	EventShipmentShipped   = "ShipmentShipped"
	EventShipmentCancelled = "ShipmentCancelled"
)

const defaultMaxAttempts = 5

var tracer = otel.Tracer("stockroom/order/listener")

// MessageReader fetches messages without committing them. kafka.Reader
// satisfies it when configured with a consumer group.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OrderUseCase interface {
	PlaceOrder(ctx context.Context, order *domain.Order) (*dto.ReservationResult, error)
	CancelOrder(ctx context.Context, orderID string) error
}

type BookingUseCase interface {
	BookReservedInventory(ctx context.Context, shipment *domain.Shipment, item *domain.ShipmentItem) error
	ReverseBookedInventory(ctx context.Context, shipment *domain.Shipment, item *domain.ShipmentItem) error
}

// OrderListener applies order and shipment events from the orders topic.
type OrderListener struct {
	reader      MessageReader
	orders      OrderUseCase
	booking     BookingUseCase
	logger      *zap.Logger
	backoff     time.Duration
	maxAttempts int
}

func NewOrderListener(reader MessageReader, orders OrderUseCase, booking BookingUseCase, logger *zap.Logger) *OrderListener {
	return &OrderListener{
		reader:      reader,
		orders:      orders,
		booking:     booking,
		logger:      logger,
		backoff:     time.Second,
		maxAttempts: defaultMaxAttempts,
	}
}

// Start consumes until ctx is done. A message is committed once it has been
// applied or can never be applied. When a message still fails after
// maxAttempts, Start returns an error without committing it, so the message
// is delivered again after a restart.
func (l *OrderListener) Start(ctx context.Context) error {
	l.logger.Info("starting order listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping order listener")
			return nil
		default:
			msg, err := l.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				l.logger.Error("failed to fetch kafka message", zap.Error(err))
				time.Sleep(l.backoff)
				continue
			}

			if err := l.handle(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}

			if err := l.reader.CommitMessages(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				l.logger.Error("failed to commit kafka message", zap.Int64("offset", msg.Offset), zap.Error(err))
			}
		}
	}
}

// handle processes msg, retrying failures that a later attempt may not hit.
func (l *OrderListener) handle(ctx context.Context, msg kafka.Message) error {
	var err error
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		err = l.processMessage(ctx, msg)
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			l.logger.Error("dropping message that cannot be applied", zap.Int64("offset", msg.Offset), zap.Error(err))
			return nil
		}

		l.logger.Warn("failed to process message",
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", l.maxAttempts),
			zap.Error(err),
		)
		if attempt == l.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("processing message at offset %d: %w", msg.Offset, err)
}

// isPermanent reports whether retrying err cannot help: the message is
// malformed or refers to something that does not exist.
func isPermanent(err error) bool {
	if _, ok := apperrors.IsValidationError(err); ok {
		return true
	}
	if _, ok := apperrors.IsInvalidArgumentError(err); ok {
		return true
	}
	_, ok := apperrors.IsNotFoundError(err)
	return ok
}

func decode(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewValidationError("malformed message: " + err.Error())
	}
	return nil
}

type Envelope struct {
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

type OrderCancelledPayload struct {
	OrderID string `json:"orderId"`
}

type ShipmentPayload struct {
	ID             string                `json:"id"`
	ShipmentNumber int                   `json:"shipmentNumber"`
	OrderID        string                `json:"orderId"`
	Items          []ShipmentItemPayload `json:"items"`
}

type ShipmentItemPayload struct {
	ID          string                  `json:"id"`
	ProductID   string                  `json:"productId"`
	Quantity    int                     `json:"quantity"`
	WarehouseID string                  `json:"warehouseId"`
	Attributes  domain.CustomAttributes `json:"attributes"`
}

func (p ShipmentPayload) toShipment() *domain.Shipment {
	shipment := &domain.Shipment{
		ID:             p.ID,
		ShipmentNumber: p.ShipmentNumber,
		OrderID:        p.OrderID,
		Items:          make([]domain.ShipmentItem, len(p.Items)),
	}
	for i, item := range p.Items {
		shipment.Items[i] = domain.ShipmentItem{
			ID:          item.ID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			WarehouseID: item.WarehouseID,
			Attributes:  item.Attributes,
		}
	}
	return shipment
}

func (l *OrderListener) processMessage(ctx context.Context, msg kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewInternalError(fmt.Sprintf("panic while processing message: %v", r), nil)
		}
	}()

	carrier := propagation.MapCarrier{}
	for _, header := range msg.Headers {
		carrier[header.Key] = string(header.Value)
	}
	ctx = otel.GetTextMapPropagator().Extract(ctx, carrier)

	var event Envelope
	if err := decode(msg.Value, &event); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "OrderListener."+event.EventType, trace.WithAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination.name", msg.Topic),
		attribute.String("event.id", event.EventID),
	))
	defer span.End()

	logger := l.logger.With(zap.String("eventId", event.EventID), zap.String("eventType", event.EventType))

	switch event.EventType {
	case EventOrderPlaced:
		err = l.handleOrderPlaced(ctx, event.Payload, logger)
	case EventOrderCancelled:
		err = l.handleOrderCancelled(ctx, event.Payload)
	case EventShipmentShipped:
		err = l.forEachShipmentItem(ctx, event.Payload, l.booking.BookReservedInventory)
	case EventShipmentCancelled:
		err = l.forEachShipmentItem(ctx, event.Payload, l.booking.ReverseBookedInventory)
	default:
		logger.Debug("ignoring event")
		return nil
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	logger.Info("event processed")
	return nil
}

func (l *OrderListener) handleOrderPlaced(ctx context.Context, payload json.RawMessage, logger *zap.Logger) error {
	var req dto.PlaceOrderRequest
	if err := decode(payload, &req); err != nil {
		return err
	}

	result, err := l.orders.PlaceOrder(ctx, req.ToOrder())
	if _, ok := apperrors.IsConflictError(err); ok {
		logger.Info("order already reserved", zap.String("orderId", req.ID))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("order placed", zap.String("orderId", req.ID), zap.String("status", string(result.Status)))
	return nil
}

func (l *OrderListener) handleOrderCancelled(ctx context.Context, payload json.RawMessage) error {
	var p OrderCancelledPayload
	if err := decode(payload, &p); err != nil {
		return err
	}
	return l.orders.CancelOrder(ctx, p.OrderID)
}

// forEachShipmentItem applies fn to every item of the shipment. A failing
// item does not stop the others. A failure worth retrying is returned ahead
// of a permanent one, so the whole shipment is applied again; booking and
// reversal skip items that were already applied.
func (l *OrderListener) forEachShipmentItem(ctx context.Context, payload json.RawMessage, fn func(ctx context.Context, shipment *domain.Shipment, item *domain.ShipmentItem) error) error {
	var p ShipmentPayload
	if err := decode(payload, &p); err != nil {
		return err
	}

	shipment := p.toShipment()
	var permanentErr, retryErr error
	for i := range shipment.Items {
		item := &shipment.Items[i]
		err := fn(ctx, shipment, item)
		if err == nil {
			continue
		}
		l.logger.Error("failed to apply shipment item",
			zap.String("shipmentId", shipment.ID),
			zap.String("itemId", item.ID),
			zap.String("productId", item.ProductID),
			zap.Error(err),
		)
		switch {
		case !isPermanent(err) && retryErr == nil:
			retryErr = err
		case isPermanent(err) && permanentErr == nil:
			permanentErr = err
		}
	}
	if retryErr != nil {
		return retryErr
	}
	return permanentErr
}
