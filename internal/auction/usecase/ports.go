package usecase

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"stockroom/internal/domain"
	"stockroom/internal/infrastructure/mysql"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (mysql.Tx, error)
}

type ProductRepository interface {
	FindByIDForUpdate(ctx context.Context, tx sqlx.ExtContext, id string) (*domain.Product, error)
	UpdateHighestBid(ctx context.Context, tx sqlx.ExtContext, id string, amount decimal.Decimal, bidder string, updatedOn time.Time) error
	UpdateAuctionEnded(ctx context.Context, tx sqlx.ExtContext, id string, ended, setEndDate bool, updatedOn time.Time) error
	FindAuctionsToEnd(ctx context.Context, now time.Time) ([]domain.Product, error)
}

type BidRepository interface {
	Insert(ctx context.Context, tx sqlx.ExtContext, bid domain.Bid) error
	Delete(ctx context.Context, tx sqlx.ExtContext, id string) error
	AssignOrder(ctx context.Context, tx sqlx.ExtContext, id, orderID string) error
	FindByID(ctx context.Context, q sqlx.ExtContext, id string) (*domain.Bid, error)
	FindByOrderID(ctx context.Context, q sqlx.ExtContext, orderID string) (*domain.Bid, error)
	FindLatestByProductID(ctx context.Context, q sqlx.ExtContext, productID string) (*domain.Bid, error)
	FindHighestByProductID(ctx context.Context, q sqlx.ExtContext, productID string) (*domain.Bid, error)
	FindByProductID(ctx context.Context, q sqlx.ExtContext, productID string, limit, offset int) ([]domain.Bid, error)
	CountByProductID(ctx context.Context, q sqlx.ExtContext, productID string) (int, error)
	FindByCustomerID(ctx context.Context, q sqlx.ExtContext, customerID string) ([]domain.Bid, error)
}

type EffectPublisher interface {
	Publish(ctx context.Context, productIDs []string, events []domain.Event)
}
