package port

import (
	"context"

	"import-claim-service/internal/core/domain"
)

// GeocoderPort - внешний геокодер. Вызывается только когда источник
// не дал координат. (nil, nil) означает "не нашли" - это не ошибка,
// объект сохраняется без координат.
type GeocoderPort interface {
	Geocode(ctx context.Context, address, city, state, zip string) (*domain.GeoPoint, error)
}
