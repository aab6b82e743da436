package product

import (
	"github.com/jmoiron/sqlx"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"

	"stockroom/internal/attribute"
	invservice "stockroom/internal/inventory/service"
	"stockroom/internal/product/controller"
	"stockroom/internal/product/repository"
	"stockroom/internal/product/service"
	"stockroom/internal/product/usecase"
)

func NewModule(db *sqlx.DB, bundle *i18n.Bundle, logger *zap.Logger) *controller.Controller {
	repo := repository.NewMySQLRepository(db)
	svc := service.NewService(repo)
	formatter := invservice.NewStockMessageFormatter(bundle, attribute.NewParser())
	uc := usecase.NewSearchUseCase(svc, formatter)
	return controller.NewController(uc, logger)
}
