package usecase

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"stockroom/internal/domain"
	"stockroom/internal/dto"
	"stockroom/internal/infrastructure/mysql"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (mysql.Tx, error)
}

type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	InsertIfAbsent(ctx context.Context, tx sqlx.ExtContext, order domain.Order) (bool, error)
	TransitionStatus(ctx context.Context, id, from, to string, updatedAt time.Time) (bool, error)
}

type OrderItemRepository interface {
	Insert(ctx context.Context, tx sqlx.ExtContext, item domain.OrderItem) error
	FindByOrderID(ctx context.Context, orderID string) ([]domain.OrderItem, error)
}

type StockReservationService interface {
	ReserveItems(ctx context.Context, order *domain.Order) (*dto.ReservationResult, error)
	ReleaseItems(ctx context.Context, order *domain.Order) error
}

// BidCanceler reopens the auction an order was won from.
type BidCanceler interface {
	CancelBidByOrder(ctx context.Context, orderID string) error
}
