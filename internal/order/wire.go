package order

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"stockroom/internal/attribute"
	"stockroom/internal/config"
	"stockroom/internal/infrastructure/mysql"
	"stockroom/internal/order/controller"
	"stockroom/internal/order/listener"
	orderrepo "stockroom/internal/order/repository"
	"stockroom/internal/order/service"
	"stockroom/internal/order/usecase"
	productrepo "stockroom/internal/product/repository"
)

type Module struct {
	Controller *controller.OrderController
	Orders     *usecase.OrderUseCase
}

// NewModule wires the order module on top of the inventory and auction use
// cases it drives.
func NewModule(
	db *sqlx.DB,
	cfg *config.Config,
	inventory service.InventoryAdjuster,
	bids usecase.BidCanceler,
	logger *zap.Logger,
) *Module {
	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	orderItemRepo := orderrepo.NewMySQLOrderItemRepository(db)

	reservationSvc := service.NewReservationService(
		db,
		productrepo.NewMySQLRepository(db),
		inventory,
		orderItemRepo,
		attribute.NewParser(),
		logger,
	)

	orderUC := usecase.NewOrderUseCase(
		mysql.NewTxManager(db),
		orderRepo,
		orderItemRepo,
		reservationSvc,
		bids,
		logger,
		cfg.Inventory,
	)

	return &Module{
		Controller: controller.NewOrderController(orderUC, logger),
		Orders:     orderUC,
	}
}

// NewListener builds the consumer of the orders topic.
func (m *Module) NewListener(reader listener.MessageReader, booking listener.BookingUseCase, logger *zap.Logger) *listener.OrderListener {
	return listener.NewOrderListener(reader, m.Orders, booking, logger)
}
