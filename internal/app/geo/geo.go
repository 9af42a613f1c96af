package geo

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/linklytics/linklytics/internal/middleware/logger"
	"go.uber.org/zap"
)

const lookupTimeout = 3 * time.Second

// Location — географические данные, привязанные к клику
type Location struct {
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	City        string  `json:"city,omitempty"`
	Region      string  `json:"region,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
}

// Resolver определяет гео-поиск по IP-адресу. Реализация никогда не
// возвращает ошибку наружу: при сбое отдаются неизвестные значения.
type Resolver interface {
	Lookup(ctx context.Context, ipAddress string) Location
}

type lookupResponse struct {
	CountryName string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Client выполняет гео-поиск через внешний HTTP API (формат ipapi.co)
type Client struct {
	http    *resty.Client
	baseURL string
}

// NewClient создаёт клиент гео-поиска с жёстким таймаутом запроса
func NewClient(baseURL string) *Client {
	return &Client{
		http:    resty.New().SetTimeout(lookupTimeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Lookup возвращает географические данные для IP-адреса.
// Частные и loopback адреса помечаются как Local без внешнего запроса.
// Любой сбой внешнего поиска логируется и даёт неизвестные значения,
// запись клика при этом не срывается.
func (c *Client) Lookup(ctx context.Context, ipAddress string) Location {
	ip := cleanIP(ipAddress)

	if isPrivateIP(ip) {
		return Location{Country: "Local", CountryCode: "XX", City: "Local", Region: "Local"}
	}

	var result lookupResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get(c.baseURL + "/" + ip + "/json/")
	if err != nil || resp.IsError() {
		logger.Log.Debug("geo lookup failed", zap.String("ip", ip), zap.Error(err))
		return Location{Country: "Unknown", CountryCode: "XX", City: "Unknown", Region: "Unknown"}
	}

	loc := Location{
		Country:     result.CountryName,
		CountryCode: result.CountryCode,
		City:        result.City,
		Region:      result.Region,
		Latitude:    result.Latitude,
		Longitude:   result.Longitude,
	}
	if loc.Country == "" {
		loc.Country = "Unknown"
	}
	if loc.CountryCode == "" {
		loc.CountryCode = "XX"
	}
	return loc
}

func cleanIP(ipAddress string) string {
	if strings.HasPrefix(ipAddress, "::ffff:") {
		return strings.TrimPrefix(ipAddress, "::ffff:")
	}
	if ipAddress == "::1" {
		return "127.0.0.1"
	}
	return ipAddress
}

func isPrivateIP(ipAddress string) bool {
	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return true
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}
