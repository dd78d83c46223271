package constants

// Имя обменника для событий маркетплейса
const (
	MarketplaceExchange = "marketplace_exchange"
)

// Ключи маршрутизации
const (
	RoutingKeyBatchCompleted  = "import.batch.completed"
	RoutingKeyPropertyClaimed = "property.claimed"
)
