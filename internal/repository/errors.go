package repository

import "errors"

// ErrStockBelowSold 库存总量不能小于已售数量
var ErrStockBelowSold = errors.New("total stock below purchased quantity")
