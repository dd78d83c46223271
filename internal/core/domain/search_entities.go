package domain

// SearchCriteria определяет параметры поиска по внешнему маркетплейсу
type SearchCriteria struct {
	Location    string
	Page        int
	ListingType string

	MinPrice *float64
	MaxPrice *float64
}

// ListingCandidate - один результат поиска во внешнем источнике.
// Флаг AlreadyImported выставляется по локальному инвентарю, чтобы
// оператор мог исключить уже импортированные объявления еще до запуска
// импорта, а не терять их молча.
type ListingCandidate struct {
	ExternalID   string
	Title        string
	Price        string
	Address      string
	City         string
	DetailURL    string
	ThumbnailURL string

	AlreadyImported bool
}

// SearchResult - страница результатов поиска плюс общий счетчик.
type SearchResult struct {
	Candidates []ListingCandidate
	Total      int
	Page       int
}

// ListingDetail - детальная запись внешнего объявления
// (контакты владельца и полный набор фотографий).
type ListingDetail struct {
	ContactName  string
	ContactPhone string
	ContactEmail string
	Images       []string
}
