// Package domain 定义店铺配置领域模型。
package domain

// StoreConfig 表示店铺级配置（单行记录）
// Email 为请求通知的收件地址，Phone 为店铺对外联系电话。
type StoreConfig struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}
