package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// AmountScale 加密资产金额保留的小数位
const AmountScale = 8

// Amount 统一金额类型（保留 8 位小数，覆盖 ETH/TON 等资产精度）
type Amount struct {
	decimal.Decimal
}

// NewAmountFromDecimal 从 decimal 创建金额
func NewAmountFromDecimal(amount decimal.Decimal) Amount {
	return Amount{Decimal: amount.Round(AmountScale)}
}

// NewAmountFromString 从字符串创建金额
func NewAmountFromString(raw string) (Amount, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Amount{}, err
	}
	return NewAmountFromDecimal(d), nil
}

// MarshalJSON 输出去掉末尾 0 的字符串（0.01 而不是 0.01000000）
func (m Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 解析金额（字符串或数字）
func (m *Amount) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		m.Decimal = d.Round(AmountScale)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	m.Decimal = decimal.NewFromFloat(f).Round(AmountScale)
	return nil
}

// Value 用于数据库写入
func (m Amount) Value() (driver.Value, error) {
	return m.Decimal.Round(AmountScale).Value()
}

// Scan 用于数据库读取
func (m *Amount) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(AmountScale)
	return nil
}

// String 返回最简小数格式
func (m Amount) String() string {
	return m.Decimal.Round(AmountScale).String()
}
