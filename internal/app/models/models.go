package models

import (
	"errors"
	"regexp"
	"time"
)

// WebhookMaxFailures — число последовательных неудачных доставок,
// после которого вебхук автоматически отключается.
const WebhookMaxFailures = 5

// Milestones — пороги количества кликов, при достижении которых
// отправляется событие milestone.
var Milestones = []int64{100, 1000, 10000, 100000}

// Валидные типы событий вебхуков.
const (
	EventClick      = "click"
	EventMilestone  = "milestone"
	EventURLCreated = "url_created"
	EventURLDeleted = "url_deleted"
)

// EventTest отправляется по запросу владельца для проверки доставки.
// На него нельзя подписаться, поэтому он не входит в validEvents.
const EventTest = "test"

var validEvents = map[string]bool{
	EventClick:      true,
	EventMilestone:  true,
	EventURLCreated: true,
	EventURLDeleted: true,
}

var aliasPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

// ErrValidation возвращается при некорректных входных данных на этапе создания.
var ErrValidation = errors.New("validation error")

// Destination — один из взвешенных адресов назначения для A/B-теста
type Destination struct {
	URL    string `json:"url"`
	Weight int    `json:"weight"`
}

// Link представляет сокращённую ссылку
type Link struct {
	ID           string        `json:"id"`
	ShortCode    string        `json:"short_code"`
	OriginalURL  string        `json:"original_url"`
	CustomAlias  string        `json:"custom_alias,omitempty"`
	Title        string        `json:"title,omitempty"`
	UserID       string        `json:"user_id"`
	Clicks       int64         `json:"clicks"`
	IsActive     bool          `json:"is_active"`
	IsABTest     bool          `json:"is_ab_test"`
	Destinations []Destination `json:"destinations,omitempty"`
	ExpiresAt    *time.Time    `json:"expires_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// LinkView — денормализованная проекция Link, которая кладётся в кеш.
// Это производное представление: источником истины остаётся хранилище.
type LinkView struct {
	ID           string        `json:"id"`
	OriginalURL  string        `json:"original_url"`
	UserID       string        `json:"user_id"`
	IsABTest     bool          `json:"is_ab_test"`
	Destinations []Destination `json:"destinations,omitempty"`
	Clicks       int64         `json:"clicks"`
}

// ClickEvent — неизменяемая запись об одном переходе по ссылке
type ClickEvent struct {
	ID        string `json:"id"`
	LinkID    string `json:"link_id"`
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Referer   string `json:"referer,omitempty"`

	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	City        string  `json:"city,omitempty"`
	Region      string  `json:"region,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`

	Device         string `json:"device,omitempty"`
	Browser        string `json:"browser,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
	OS             string `json:"os,omitempty"`
	OSVersion      string `json:"os_version,omitempty"`

	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`

	IsBot    bool `json:"is_bot"`
	IsMobile bool `json:"is_mobile"`

	// Variant — 0-based индекс выбранного назначения для A/B-теста, nil для обычных ссылок
	Variant *int `json:"variant,omitempty"`

	ClickedAt time.Time `json:"clicked_at"`
}

// Webhook — подписка пользователя на события
type Webhook struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	URL             string     `json:"url"`
	Events          []string   `json:"events"`
	Secret          string     `json:"-"`
	IsActive        bool       `json:"is_active"`
	FailureCount    int        `json:"failure_count"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Subscribed сообщает, подписан ли вебхук на указанный тип события
func (w *Webhook) Subscribed(event string) bool {
	for _, e := range w.Events {
		if e == event {
			return true
		}
	}
	return false
}

// ValidateAlias проверяет пользовательский алиас: 3-50 символов,
// латинские буквы, цифры, дефис и подчёркивание
func ValidateAlias(alias string) error {
	if !aliasPattern.MatchString(alias) {
		return ErrValidation
	}
	return nil
}

// ValidateDestinations проверяет конфигурацию A/B-теста:
// минимум два назначения, веса неотрицательны и в сумме дают ровно 100
func ValidateDestinations(destinations []Destination) error {
	if len(destinations) < 2 {
		return ErrValidation
	}
	total := 0
	for _, d := range destinations {
		if d.URL == "" || d.Weight < 0 {
			return ErrValidation
		}
		total += d.Weight
	}
	if total != 100 {
		return ErrValidation
	}
	return nil
}

// ValidateEvents проверяет, что все типы событий вебхука известны
func ValidateEvents(events []string) error {
	if len(events) == 0 {
		return ErrValidation
	}
	for _, e := range events {
		if !validEvents[e] {
			return ErrValidation
		}
	}
	return nil
}

// CreateLinkRequest представляет входную структуру для создания ссылки
type CreateLinkRequest struct {
	OriginalURL  string        `json:"original_url"`
	CustomAlias  string        `json:"custom_alias,omitempty"`
	Title        string        `json:"title,omitempty"`
	IsABTest     bool          `json:"is_ab_test,omitempty"`
	Destinations []Destination `json:"destinations,omitempty"`
	ExpiresAt    *time.Time    `json:"expires_at,omitempty"`
}

// LinkResponse представляет выходную структуру после создания ссылки
type LinkResponse struct {
	ID          string     `json:"id"`
	ShortURL    string     `json:"short_url"`
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	Title       string     `json:"title,omitempty"`
	Clicks      int64      `json:"clicks"`
	IsABTest    bool       `json:"is_ab_test"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// UpdateLinkRequest используется для изменения заголовка ссылки
type UpdateLinkRequest struct {
	Title string `json:"title"`
}

// CreateWebhookRequest представляет входную структуру для создания вебхука
type CreateWebhookRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}

// UpdateWebhookRequest используется для изменения вебхука.
// Повторная активация сбрасывает счётчик неудачных доставок.
type UpdateWebhookRequest struct {
	URL      *string  `json:"url,omitempty"`
	Events   []string `json:"events,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
}

// StatsResponse содержит количество ссылок и пользователей
type StatsResponse struct {
	URLs  int64 `json:"urls"`
	Users int64 `json:"users"`
}
