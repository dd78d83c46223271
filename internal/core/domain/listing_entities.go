package domain

const (
	SourceSpreadsheet = "spreadsheet"
	SourceExternalAPI = "external_api"
)

// Типы недвижимости, к которым нормализатор приводит значения из источников.
const (
	PropertyTypeHouse      = "house"
	PropertyTypeApartment  = "apartment"
	PropertyTypeCondo      = "condo"
	PropertyTypeTownhouse  = "townhouse"
	PropertyTypeCommercial = "commercial"
	PropertyTypeLand       = "land"
	PropertyTypeOther      = "other"
)

// RawListing - "сырая" запись из источника (строка таблицы или ответ внешнего API).
// Поля хранятся как нетипизированная карта строк; единственная граница, через
// которую эти данные попадают в остальную систему - нормализатор.
type RawListing struct {
	SourceKind string
	// Порядковый номер записи в источнике (строка файла или позиция в выборке).
	// Нумерация с единицы, без строки заголовка.
	Row    int
	Fields map[string]string

	// Фотографии, уже полученные источником вместе с записью (детальный
	// ответ внешнего API). Резолвер использует их вместо повторного
	// обращения к тому же API.
	Images []string
}

// GeoPoint - координаты объекта.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// ListingRecord - каноническое представление одного входящего объявления
// после нормализации. Не персистится напрямую.
type ListingRecord struct {
	Address string
	City    string
	State   string
	ZipCode string

	Price         float64
	Bedrooms      int
	BathroomsFull int
	BathroomsHalf int
	Sqft          int
	LotSize       *float64
	PropertyType  string
	YearBuilt     *int
	Description   string

	OwnerName    string
	OwnerPhone   string
	OwnerEmail   string
	OwnerAddress string

	// Привязка к внешнему источнику (пусто для таблиц без идентификаторов)
	ExternalID   *string
	DetailURL    string
	ThumbnailURL string

	// Фотографии, пришедшие вместе с записью из источника
	SourceImages []string

	Coordinates *GeoPoint
}

// IsLand сообщает, является ли объявление земельным участком.
// Для участков поля про здание (спальни, ванные, площадь, год постройки)
// не имеют смысла и принудительно обнуляются нормализатором.
func (r *ListingRecord) IsLand() bool {
	return r.PropertyType == PropertyTypeLand
}
