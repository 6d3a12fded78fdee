package service

const (
	// CommissionRate 手续费率
	CommissionRate = 0.001
	// MinCommission 单笔最低手续费
	MinCommission = 5.0
)

// CalculateCommission 计算交易手续费：成交金额的千分之一，最低5元
func CalculateCommission(quantity, price float64) float64 {
	commission := quantity * price * CommissionRate
	if commission < MinCommission {
		return MinCommission
	}
	return commission
}
