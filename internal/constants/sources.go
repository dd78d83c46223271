package constants

// Ключи полей RawListing. Оба адаптера источников раскладывают вход
// в эту общую карту, нормализатор знает только эти имена.
const (
	FieldAddress      = "address"
	FieldCity         = "city"
	FieldState        = "state"
	FieldZipCode      = "zip_code"
	FieldPrice        = "price"
	FieldBedrooms     = "bedrooms"
	FieldBathrooms    = "bathrooms"
	FieldSqft         = "sqft"
	FieldPropertyType = "property_type"
	FieldYearBuilt    = "year_built"
	FieldLotSize      = "lot_size"
	FieldOwnerName    = "owner_name"
	FieldOwnerPhone   = "owner_phone"
	FieldOwnerEmail   = "owner_email"
	FieldOwnerAddress = "owner_address"
	FieldDescription  = "description"
	FieldExternalID   = "external_id"
	FieldDetailURL    = "detail_url"
	FieldThumbnailURL = "thumbnail_url"
	FieldLatitude     = "latitude"
	FieldLongitude    = "longitude"
)

// Колонки CSV-шаблона. Первые три обязательны.
var SpreadsheetColumns = []string{
	FieldAddress, FieldCity, FieldPrice,
	FieldState, FieldZipCode, FieldBedrooms, FieldBathrooms, FieldSqft,
	FieldPropertyType, FieldYearBuilt, FieldLotSize,
	FieldOwnerName, FieldOwnerPhone, FieldOwnerEmail, FieldOwnerAddress,
	FieldDescription,
}
