package model

import "github.com/shopspring/decimal"

// MoneyPlaces задаёт число знаков после запятой в денежных суммах.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// MaxAmount задаёт наибольшую денежную сумму, которую принимает хранилище.
var MaxAmount = decimal.New(1, 10).Sub(decimal.New(1, -MoneyPlaces))

// OrderAmounts вычисляет стоимость заказа и комиссию платформы.
// Стоимость считается точно, комиссия округляется до MoneyPlaces.
func OrderAmounts(unitPrice decimal.Decimal, quantity int, commissionRate decimal.Decimal) (total, commission decimal.Decimal) {
	total = unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	commission = total.Mul(commissionRate).Div(hundred).Round(MoneyPlaces)
	return total, commission
}
