package inventory

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"stockroom/internal/attribute"
	"stockroom/internal/config"
	"stockroom/internal/infrastructure/mysql"
	"stockroom/internal/inventory/controller"
	"stockroom/internal/inventory/repository"
	"stockroom/internal/inventory/service"
	"stockroom/internal/inventory/usecase"
	productrepo "stockroom/internal/product/repository"
)

type Module struct {
	Controller *controller.InventoryController
	Inventory  *usecase.InventoryUseCase
	Booking    *usecase.BookingUseCase
}

func NewModule(db *sqlx.DB, cfg *config.Config, effects usecase.EffectPublisher, logger *zap.Logger) *Module {
	txManager := mysql.NewTxManager(db)
	productRepo := productrepo.NewMySQLRepository(db)
	journalRepo := repository.NewMySQLJournalRepository(db)

	parser := attribute.NewParser()
	engine := service.NewEngine(parser, cfg.Catalog)
	planner := service.NewPlanner(parser)

	inventoryUC := usecase.NewInventoryUseCase(txManager, productRepo, engine, planner, effects, logger, cfg.Inventory)
	bookingUC := usecase.NewBookingUseCase(txManager, productRepo, journalRepo, engine, planner, effects, logger, cfg.Inventory)

	return &Module{
		Controller: controller.NewInventoryController(inventoryUC, bookingUC, logger),
		Inventory:  inventoryUC,
		Booking:    bookingUC,
	}
}
