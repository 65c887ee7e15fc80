package models

// AdminStats - агрегаты для дашборда администратора.
type AdminStats struct {
	TotalUsers         int64       `json:"total_users"`
	TotalRevenue       float64     `json:"total_revenue"`
	TotalWithdrawals   float64     `json:"total_withdrawals"`
	PendingWithdrawals int64       `json:"pending_withdrawals"`
	SubscriptionCounts []TypeCount `json:"subscription_counts"`
}
