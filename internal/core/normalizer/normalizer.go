package normalizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"import-claim-service/internal/constants"
	"import-claim-service/internal/core/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Options - настройки нормализации.
type Options struct {
	// Регион по умолчанию, если источник не указал штат
	DefaultState string
}

var titleCaser = cases.Title(language.English)

// Normalize превращает "сырую" запись источника в каноническую ListingRecord.
// Функция чистая: никакого I/O, никаких побочных эффектов. Ошибка координатного
// типа *domain.ValidationError означает проблему одного поля, а не фатальный сбой.
//
// Обязательность полей зависит от источника: для таблиц требуются минимум
// address, city и price; записи внешнего API считаются полными, так как
// проходят валидацию по схеме еще в адаптере.
func Normalize(raw domain.RawListing, opts Options) (domain.ListingRecord, error) {
	f := raw.Fields
	rec := domain.ListingRecord{}

	rec.Address = strings.TrimSpace(f[constants.FieldAddress])
	rec.City = titleCaser.String(strings.ToLower(strings.TrimSpace(f[constants.FieldCity])))
	rec.State = strings.ToUpper(strings.TrimSpace(f[constants.FieldState]))
	rec.ZipCode = strings.TrimSpace(f[constants.FieldZipCode])

	if raw.SourceKind == domain.SourceSpreadsheet {
		if rec.Address == "" {
			return rec, domain.NewValidationError(constants.FieldAddress, "address is required")
		}
		if rec.City == "" {
			return rec, domain.NewValidationError(constants.FieldCity, "city is required")
		}
		if strings.TrimSpace(f[constants.FieldPrice]) == "" {
			return rec, domain.NewValidationError(constants.FieldPrice, "price is required")
		}
	}

	if rec.State == "" {
		rec.State = strings.ToUpper(opts.DefaultState)
	}

	price, err := parseMoney(f[constants.FieldPrice])
	if err != nil {
		return rec, domain.NewValidationError(constants.FieldPrice, err.Error())
	}
	rec.Price = price

	rec.Bedrooms, err = parseCount(f[constants.FieldBedrooms])
	if err != nil {
		return rec, domain.NewValidationError(constants.FieldBedrooms, err.Error())
	}

	rec.BathroomsFull, rec.BathroomsHalf, err = parseBathrooms(f[constants.FieldBathrooms])
	if err != nil {
		return rec, domain.NewValidationError(constants.FieldBathrooms, err.Error())
	}

	rec.Sqft, err = parseCount(f[constants.FieldSqft])
	if err != nil {
		return rec, domain.NewValidationError(constants.FieldSqft, err.Error())
	}

	if v := strings.TrimSpace(f[constants.FieldLotSize]); v != "" {
		lot, lotErr := parseMoney(v)
		if lotErr != nil {
			return rec, domain.NewValidationError(constants.FieldLotSize, lotErr.Error())
		}
		rec.LotSize = &lot
	}

	if v := strings.TrimSpace(f[constants.FieldYearBuilt]); v != "" {
		year, yearErr := parseCount(v)
		if yearErr != nil {
			return rec, domain.NewValidationError(constants.FieldYearBuilt, yearErr.Error())
		}
		if year > 0 {
			rec.YearBuilt = &year
		}
	}

	rec.PropertyType = normalizePropertyType(f[constants.FieldPropertyType])
	rec.Description = strings.TrimSpace(f[constants.FieldDescription])

	rec.OwnerName = titleCaser.String(strings.ToLower(strings.TrimSpace(f[constants.FieldOwnerName])))
	rec.OwnerPhone = strings.TrimSpace(f[constants.FieldOwnerPhone])
	rec.OwnerEmail = strings.ToLower(strings.TrimSpace(f[constants.FieldOwnerEmail]))
	rec.OwnerAddress = strings.TrimSpace(f[constants.FieldOwnerAddress])

	if v := strings.TrimSpace(f[constants.FieldExternalID]); v != "" {
		rec.ExternalID = &v
	}
	rec.DetailURL = strings.TrimSpace(f[constants.FieldDetailURL])
	rec.ThumbnailURL = strings.TrimSpace(f[constants.FieldThumbnailURL])

	rec.SourceImages = raw.Images

	if point, ok := parseCoordinates(f[constants.FieldLatitude], f[constants.FieldLongitude]); ok {
		rec.Coordinates = point
	}

	// Инвариант для участков: характеристики здания обнуляются независимо
	// от того, что прислал источник.
	if rec.IsLand() {
		rec.Bedrooms = 0
		rec.BathroomsFull = 0
		rec.BathroomsHalf = 0
		rec.Sqft = 0
		rec.YearBuilt = nil
	}

	return rec, nil
}

// parseMoney приводит строку с ценой к числу: отбрасывает символы валют,
// разделители тысяч и пробелы. Отрицательные значения не допускаются.
func parseMoney(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ':
			return -1
		}
		return r
	}, s)

	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as a number", raw)
	}
	if val < 0 {
		return 0, fmt.Errorf("value %q must be >= 0", raw)
	}
	return val, nil
}

// parseCount - целое неотрицательное (спальни, площадь, год)
func parseCount(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	cleaned := strings.ReplaceAll(s, ",", "")
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as a number", raw)
	}
	if val < 0 {
		return 0, fmt.Errorf("value %q must be >= 0", raw)
	}
	return int(math.Round(val)), nil
}

// parseBathrooms раскладывает "2.5" на 2 полных и 1 половинный санузел.
func parseBathrooms(raw string) (full int, half int, err error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, 0, nil
	}
	val, parseErr := strconv.ParseFloat(s, 64)
	if parseErr != nil {
		return 0, 0, fmt.Errorf("cannot parse %q as a number", raw)
	}
	if val < 0 {
		return 0, 0, fmt.Errorf("value %q must be >= 0", raw)
	}

	full = int(val)
	if val-float64(full) >= 0.25 {
		half = 1
	}
	return full, half, nil
}

func parseCoordinates(latRaw, lngRaw string) (*domain.GeoPoint, bool) {
	latStr := strings.TrimSpace(latRaw)
	lngStr := strings.TrimSpace(lngRaw)
	if latStr == "" || lngStr == "" {
		return nil, false
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lng, lngErr := strconv.ParseFloat(lngStr, 64)
	if latErr != nil || lngErr != nil {
		return nil, false
	}
	if lat == 0 && lng == 0 {
		return nil, false
	}
	return &domain.GeoPoint{Latitude: lat, Longitude: lng}, true
}

// normalizePropertyType приводит тип недвижимости к внутреннему перечислению.
// Неизвестные значения не считаются ошибкой и попадают в "other".
func normalizePropertyType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "house", "home", "single family", "single_family", "single-family":
		return domain.PropertyTypeHouse
	case "apartment", "apt", "flat", "multi family", "multi_family":
		return domain.PropertyTypeApartment
	case "condo", "condominium":
		return domain.PropertyTypeCondo
	case "townhouse", "townhome":
		return domain.PropertyTypeTownhouse
	case "commercial", "office", "retail":
		return domain.PropertyTypeCommercial
	case "land", "lot", "vacant land", "vacant_land", "acreage":
		return domain.PropertyTypeLand
	case "":
		return domain.PropertyTypeHouse
	default:
		return domain.PropertyTypeOther
	}
}
