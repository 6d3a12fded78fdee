package nostd

import "math"

// RoundMoney 金额统一保留两位小数，四舍五入（远离零方向），
// 保证大量成交累积后不出现精度漂移
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// FloorQuantity 成交数量向下取整到整数股
func FloorQuantity(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Floor(v)
}
