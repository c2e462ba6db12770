package transport

import (
	"github.com/Skotchmaster/rocketshoes/internal/cart"
	"github.com/Skotchmaster/rocketshoes/internal/models"
)

type AddItemRequest struct {
	ProductID int `json:"product_id"`
}

type UpdateAmountRequest struct {
	Amount int `json:"amount"`
}

type CartResponse struct {
	Cart    []models.Product `json:"cart"`
	Summary cart.Summary     `json:"summary"`
}

// ErrorResponse carries the message shown to the shopper together with the
// cart as it stands after the failed operation.
type ErrorResponse struct {
	Message string           `json:"message"`
	Cart    []models.Product `json:"cart"`
}
