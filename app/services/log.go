package services

import (
	"dukaan/app/models"
	"dukaan/pkg/logger"
)

func logError(msg string, order *models.Order, err error) {
	logger.Error(msg, "order", order.OrderNumber, "error", err)
}
