package mtsource

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// Config - настройки фетчера внешнего маркетплейса.
type Config struct {
	BaseURL string

	// Минимальная пауза между последовательными внешними запросами.
	// Значение задается конфигурацией, не константой: подходящая пауза
	// специфична для хоста и требует подстройки.
	FetchDelay time.Duration

	// Таймаут одного запроса
	FetchTimeout time.Duration
}

// MTSourceAdapter отвечает за все взаимодействия с внешним маркетплейсом:
// поиск, детальные записи и скрейп страниц объявлений.
type MTSourceAdapter struct {
	// родительский коллектор, который разделяет лимиты между клонами
	collector *colly.Collector
	baseURL   string
}

// NewMTSourceAdapter - конструктор
func NewMTSourceAdapter(cfg Config) (*MTSourceAdapter, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("MTSourceAdapter: invalid base URL %q", cfg.BaseURL)
	}

	c := colly.NewCollector(colly.AllowedDomains(parsed.Host), colly.AllowURLRevisit())

	delay := cfg.FetchDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}

	// Правило наследуется всеми клонами коллектора. Delay - фиксированная
	// пауза перед каждым следующим запросом к домену; первый запрос батча
	// проходит без ожидания.
	err = c.Limit(&colly.LimitRule{
		DomainGlob:  parsed.Host,
		Parallelism: 1,
		Delay:       delay,
	})
	if err != nil {
		return nil, fmt.Errorf("MTSourceAdapter: failed to set limit rule: %w", err)
	}

	if cfg.FetchTimeout > 0 {
		c.SetRequestTimeout(cfg.FetchTimeout)
	}

	extensions.RandomUserAgent(c) // На каждый запрос будет подставлен User-Agent реального браузера
	extensions.Referer(c)

	return &MTSourceAdapter{
		collector: c,
		baseURL:   cfg.BaseURL,
	}, nil
}
