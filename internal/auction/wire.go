package auction

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"stockroom/internal/auction/controller"
	"stockroom/internal/auction/repository"
	"stockroom/internal/auction/usecase"
	"stockroom/internal/config"
	"stockroom/internal/infrastructure/mysql"
	productrepo "stockroom/internal/product/repository"
)

type Module struct {
	Controller *controller.BidController
	Bids       *usecase.BidUseCase
}

func NewModule(db *sqlx.DB, cfg *config.Config, effects usecase.EffectPublisher, logger *zap.Logger) *Module {
	bidUC := usecase.NewBidUseCase(
		mysql.NewTxManager(db),
		db,
		productrepo.NewMySQLRepository(db),
		repository.NewMySQLBidRepository(db),
		effects,
		logger,
		cfg.Inventory,
	)

	return &Module{
		Controller: controller.NewBidController(bidUC, logger),
		Bids:       bidUC,
	}
}
