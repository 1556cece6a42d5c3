package model

import (
	"errors"
	"fmt"
)

// Виды ошибок. Конкретные ошибки оборачивают один из них, чтобы вызывающий код
// мог классифицировать сбой через errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	// ErrBagUnavailable возвращается при заказе неактивного или распроданного бокса.
	ErrBagUnavailable = fmt.Errorf("%w: bag is not available", ErrInvalidState)
	// ErrInsufficientInventory возвращается, если запрошенное количество превышает остаток.
	ErrInsufficientInventory = fmt.Errorf("%w: not enough quantity available", ErrInvalidState)
	// ErrInvalidTransition возвращается при недопустимой смене статуса заказа.
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrInvalidState)
	// ErrBagHasOrders возвращается при попытке изменить бокс, по которому уже есть заказы.
	ErrBagHasOrders = fmt.Errorf("%w: cannot update bag with existing orders", ErrInvalidState)
	// ErrPartnerInactive возвращается при входе деактивированного партнёра.
	ErrPartnerInactive = fmt.Errorf("%w: account is deactivated", ErrUnauthorized)
)
