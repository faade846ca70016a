package types

// SubscriptionID 订阅标识
type SubscriptionID string
