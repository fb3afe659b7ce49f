package service

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . AddressReader,AddressRepository,EventWriter,InventoryLedger,OrderRepository,PaymentMethodReader,PaymentMethodRepository,ProductRepository,RefundRepository,TokenService,UserRepository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rookgm/fmmall/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/rookgm/fmmall/internal/service")

// Transactor runs function in one database transaction
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventWriter stores domain events
type EventWriter interface {
	// InsertEvent inserts event to outbox
	InsertEvent(ctx context.Context, event *models.Event) error
}

// publish writes domain event to outbox inside current transaction
func publish(ctx context.Context, ew EventWriter, eventType string, key uint64, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return ew.InsertEvent(ctx, &models.Event{
		EventID: uuid.NewString(),
		Type:    eventType,
		Key:     fmt.Sprint(key),
		Payload: data,
	})
}

// finishSpan records operation error on span and ends it
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
