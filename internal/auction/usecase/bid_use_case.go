package usecase

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"stockroom/internal/config"
	"stockroom/internal/domain"
	"stockroom/internal/dto"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/infrastructure/mysql"
)

const (
	defaultTxTimeout = 5 * time.Second
	defaultPageSize  = 20
	maxPageSize      = 100
)

var tracer = otel.Tracer("stockroom/auction")

// BidUseCase keeps the bid history of auctions and the highest bid
// denormalized on the product. Every mutation locks the product row first.
type BidUseCase struct {
	txManager TransactionManager
	reader    sqlx.ExtContext
	products  ProductRepository
	bids      BidRepository
	effects   EffectPublisher
	logger    *zap.Logger
	cfg       config.InventoryConfig
	now       func() time.Time
	newID     func() string
}

func NewBidUseCase(
	txManager TransactionManager,
	reader sqlx.ExtContext,
	products ProductRepository,
	bids BidRepository,
	effects EffectPublisher,
	logger *zap.Logger,
	cfg config.InventoryConfig,
) *BidUseCase {
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = defaultTxTimeout
	}
	return &BidUseCase{
		txManager: txManager,
		reader:    reader,
		products:  products,
		bids:      bids,
		effects:   effects,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// NewBid records a bid and makes it the product's highest bid. The previous
// bidder is told they were outbid unless they outbid themselves.
func (uc *BidUseCase) NewBid(ctx context.Context, input dto.NewBidInput) (result *domain.Bid, err error) {
	if input.CustomerID == "" {
		return nil, apperrors.NewInvalidArgumentError("customerId", "must not be empty")
	}
	if input.ProductID == "" {
		return nil, apperrors.NewInvalidArgumentError("productId", "must not be empty")
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.NewInvalidArgumentError("amount", "must be positive")
	}

	ctx, span := tracer.Start(ctx, "BidUseCase.NewBid", trace.WithAttributes(
		attribute.String("product.id", input.ProductID),
		attribute.String("customer.id", input.CustomerID),
	))
	defer func() { endSpan(span, err) }()

	var bid domain.Bid
	err = uc.inTx(ctx, "new-bid", input.ProductID, func(ctx context.Context, tx mysql.Tx) ([]domain.Event, error) {
		product, err := uc.products.FindByIDForUpdate(ctx, tx, input.ProductID)
		if err != nil {
			return nil, err
		}
		if product.ProductType != domain.ProductTypeAuction {
			return nil, apperrors.NewValidationError("product is not an auction", apperrors.ValidationDetail{
				Field:   "productId",
				Message: "product " + product.ID + " is not an auction",
			})
		}
		if product.AuctionEnded {
			return nil, apperrors.NewConflictError("auction for product " + product.ID + " has ended")
		}

		previous, err := uc.bids.FindLatestByProductID(ctx, tx, product.ID)
		if err != nil {
			return nil, err
		}

		now := uc.now().UTC()
		bid = domain.Bid{
			ID:          uc.newID(),
			ProductID:   product.ID,
			CustomerID:  input.CustomerID,
			StoreID:     input.StoreID,
			WarehouseID: input.WarehouseID,
			Amount:      input.Amount,
			Date:        now,
		}
		if err := uc.bids.Insert(ctx, tx, bid); err != nil {
			return nil, err
		}
		if err := uc.products.UpdateHighestBid(ctx, tx, product.ID, input.Amount, input.CustomerID, now); err != nil {
			return nil, err
		}

		events := []domain.Event{
			domain.EntityInserted{Entity: domain.EntityBid, ID: bid.ID},
			domain.EntityUpdated{Entity: domain.EntityProduct, ID: product.ID},
		}
		if previous != nil && previous.CustomerID != input.CustomerID {
			events = append(events, domain.OutBidCustomer{
				CustomerID: previous.CustomerID,
				ProductID:  product.ID,
				StoreID:    previous.StoreID,
				Language:   input.Language,
				Amount:     input.Amount,
			})
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("bid placed",
		zap.String("bidId", bid.ID),
		zap.String("productId", bid.ProductID),
		zap.String("customerId", bid.CustomerID),
		zap.String("amount", bid.Amount.String()),
	)
	return &bid, nil
}

// DeleteBid removes a bid and re-derives the product's highest bid from the
// bids that remain.
func (uc *BidUseCase) DeleteBid(ctx context.Context, bidID string) (err error) {
	if bidID == "" {
		return apperrors.NewInvalidArgumentError("bidId", "must not be empty")
	}

	ctx, span := tracer.Start(ctx, "BidUseCase.DeleteBid", trace.WithAttributes(attribute.String("bid.id", bidID)))
	defer func() { endSpan(span, err) }()

	bid, err := uc.bids.FindByID(ctx, uc.reader, bidID)
	if err != nil {
		return err
	}

	err = uc.inTx(ctx, "delete-bid", bid.ProductID, func(ctx context.Context, tx mysql.Tx) ([]domain.Event, error) {
		productExists, err := uc.lockProduct(ctx, tx, bid.ProductID)
		if err != nil {
			return nil, err
		}
		if err := uc.bids.Delete(ctx, tx, bid.ID); err != nil {
			return nil, err
		}

		events := []domain.Event{domain.EntityDeleted{Entity: domain.EntityBid, ID: bid.ID}}
		if !productExists {
			return events, nil
		}

		highest, err := uc.bids.FindHighestByProductID(ctx, tx, bid.ProductID)
		if err != nil {
			return nil, err
		}
		amount, bidder := decimal.Zero, ""
		if highest != nil {
			amount, bidder = highest.Amount, highest.CustomerID
		}
		if err := uc.products.UpdateHighestBid(ctx, tx, bid.ProductID, amount, bidder, uc.now().UTC()); err != nil {
			return nil, err
		}

		return append(events, domain.EntityUpdated{Entity: domain.EntityProduct, ID: bid.ProductID}), nil
	})
	if err != nil {
		return err
	}

	uc.logger.Info("bid deleted", zap.String("bidId", bid.ID), zap.String("productId", bid.ProductID))
	return nil
}

// CancelBidByOrder removes the bid an order was created from and reopens its
// auction with no highest bid. An order without a bid is a no-op.
func (uc *BidUseCase) CancelBidByOrder(ctx context.Context, orderID string) (err error) {
	if orderID == "" {
		return apperrors.NewInvalidArgumentError("orderId", "must not be empty")
	}

	ctx, span := tracer.Start(ctx, "BidUseCase.CancelBidByOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	bid, err := uc.bids.FindByOrderID(ctx, uc.reader, orderID)
	if err != nil {
		return err
	}
	if bid == nil {
		uc.logger.Debug("no bid for order", zap.String("orderId", orderID))
		return nil
	}

	err = uc.inTx(ctx, "cancel-bid-by-order", bid.ProductID, func(ctx context.Context, tx mysql.Tx) ([]domain.Event, error) {
		productExists, err := uc.lockProduct(ctx, tx, bid.ProductID)
		if err != nil {
			return nil, err
		}
		if err := uc.bids.Delete(ctx, tx, bid.ID); err != nil {
			if _, ok := apperrors.IsNotFoundError(err); ok {
				return nil, nil
			}
			return nil, err
		}

		events := []domain.Event{domain.EntityDeleted{Entity: domain.EntityBid, ID: bid.ID}}
		if !productExists {
			return events, nil
		}

		now := uc.now().UTC()
		if err := uc.products.UpdateHighestBid(ctx, tx, bid.ProductID, decimal.Zero, "", now); err != nil {
			return nil, err
		}
		if err := uc.products.UpdateAuctionEnded(ctx, tx, bid.ProductID, false, false, now); err != nil {
			return nil, err
		}

		return append(events, domain.EntityUpdated{Entity: domain.EntityProduct, ID: bid.ProductID}), nil
	})
	if err != nil {
		return err
	}

	uc.logger.Info("bid cancelled by order", zap.String("orderId", orderID), zap.String("bidId", bid.ID))
	return nil
}

// UpdateAuctionEnded marks an auction as ended or reopens it. With setEndDate
// the auction's end date becomes now.
func (uc *BidUseCase) UpdateAuctionEnded(ctx context.Context, productID string, ended, setEndDate bool) (err error) {
	if productID == "" {
		return apperrors.NewInvalidArgumentError("productId", "must not be empty")
	}

	ctx, span := tracer.Start(ctx, "BidUseCase.UpdateAuctionEnded", trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Bool("auction.ended", ended),
	))
	defer func() { endSpan(span, err) }()

	return uc.inTx(ctx, "update-auction-ended", productID, func(ctx context.Context, tx mysql.Tx) ([]domain.Event, error) {
		if _, err := uc.products.FindByIDForUpdate(ctx, tx, productID); err != nil {
			return nil, err
		}
		if err := uc.products.UpdateAuctionEnded(ctx, tx, productID, ended, setEndDate, uc.now().UTC()); err != nil {
			return nil, err
		}
		return []domain.Event{domain.EntityUpdated{Entity: domain.EntityProduct, ID: productID}}, nil
	})
}

// AssignOrder links a winning bid to the order created from it.
func (uc *BidUseCase) AssignOrder(ctx context.Context, bidID, orderID string) error {
	if bidID == "" || orderID == "" {
		return apperrors.NewInvalidArgumentError("bid", "bidId and orderId must not be empty")
	}

	bid, err := uc.bids.FindByID(ctx, uc.reader, bidID)
	if err != nil {
		return err
	}

	return uc.inTx(ctx, "assign-bid-order", bid.ProductID, func(ctx context.Context, tx mysql.Tx) ([]domain.Event, error) {
		if err := uc.bids.AssignOrder(ctx, tx, bidID, orderID); err != nil {
			return nil, err
		}
		return []domain.Event{domain.EntityUpdated{Entity: domain.EntityBid, ID: bidID}}, nil
	})
}

// GetAuctionsToEnd lists open auctions whose end date has passed.
func (uc *BidUseCase) GetAuctionsToEnd(ctx context.Context) ([]domain.Product, error) {
	return uc.products.FindAuctionsToEnd(ctx, uc.now().UTC())
}

func (uc *BidUseCase) GetBid(ctx context.Context, bidID string) (*domain.Bid, error) {
	return uc.bids.FindByID(ctx, uc.reader, bidID)
}

func (uc *BidUseCase) GetLatestBid(ctx context.Context, productID string) (*domain.Bid, error) {
	bid, err := uc.bids.FindLatestByProductID(ctx, uc.reader, productID)
	if err != nil {
		return nil, err
	}
	if bid == nil {
		return nil, apperrors.NewNotFoundError("no bids for product " + productID)
	}
	return bid, nil
}

// GetBidsByProductID returns one page of a product's bids, newest first, and
// the total number of bids. page starts at 1.
func (uc *BidUseCase) GetBidsByProductID(ctx context.Context, productID string, page, pageSize int) ([]domain.Bid, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	total, err := uc.bids.CountByProductID(ctx, uc.reader, productID)
	if err != nil {
		return nil, 0, err
	}
	bids, err := uc.bids.FindByProductID(ctx, uc.reader, productID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	return bids, total, nil
}

func (uc *BidUseCase) GetBidsByCustomerID(ctx context.Context, customerID string) ([]domain.Bid, error) {
	return uc.bids.FindByCustomerID(ctx, uc.reader, customerID)
}

// lockProduct locks the product row. A deleted product is reported as false
// so bid rows can still be cleaned up.
func (uc *BidUseCase) lockProduct(ctx context.Context, tx mysql.Tx, productID string) (bool, error) {
	if _, err := uc.products.FindByIDForUpdate(ctx, tx, productID); err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// inTx runs fn in a transaction retried on deadlock, then publishes the
// events fn produced for productID.
func (uc *BidUseCase) inTx(ctx context.Context, operation, productID string, fn func(ctx context.Context, tx mysql.Tx) ([]domain.Event, error)) error {
	var events []domain.Event
	err := mysql.RetryOnDeadlock(ctx, uc.logger, uc.cfg.MaxRetryAttempts, operation, func(ctx context.Context) error {
		txCtx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
		defer cancel()

		tx, err := uc.txManager.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
		if err != nil {
			return err
		}
		defer tx.Rollback()

		events, err = fn(txCtx, tx)
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		uc.logger.Error("auction operation failed", zap.String("operation", operation), zap.String("productId", productID), zap.Error(err))
		return err
	}

	if len(events) > 0 {
		uc.effects.Publish(ctx, []string{productID}, events)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
