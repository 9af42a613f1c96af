package useragent

import (
	"regexp"
	"strings"
)

// Info — результат классификации строки User-Agent
type Info struct {
	Device   string
	Browser  string
	OS       string
	IsMobile bool
	IsBot    bool
}

var (
	botPattern    = regexp.MustCompile(`(?i)bot|crawler|spider|scraper|headless|facebookexternalhit|whatsapp|telegram|slack`)
	tabletPattern = regexp.MustCompile(`(?i)tablet|ipad|kindle|silk`)
	mobilePattern = regexp.MustCompile(`(?i)mobile|iphone|ipod|android|blackberry|opera mini|windows ce|palm|smartphone|iemobile`)
)

// Браузеры проверяются по порядку: Edge и Opera содержат "Chrome" в
// строке агента, Chrome содержит "Safari", поэтому специфичные идут первыми.
var browsers = []struct {
	token string
	name  string
}{
	{"Edg", "Edge"},
	{"OPR", "Opera"},
	{"Opera", "Opera"},
	{"Firefox", "Firefox"},
	{"Chrome", "Chrome"},
	{"Safari", "Safari"},
	{"MSIE", "Internet Explorer"},
	{"Trident", "Internet Explorer"},
}

var systems = []struct {
	token string
	name  string
}{
	{"Windows", "Windows"},
	{"iPhone", "iOS"},
	{"iPad", "iOS"},
	{"Mac OS X", "macOS"},
	{"Android", "Android"},
	{"Linux", "Linux"},
}

// Parse классифицирует строку User-Agent: тип устройства, браузер,
// операционная система и признак бота. Пустая строка считается
// подозрительной и помечается как бот.
func Parse(ua string) Info {
	if ua == "" {
		return Info{Device: "desktop", Browser: "Unknown", OS: "Unknown", IsBot: true}
	}

	info := Info{
		Device:  "desktop",
		Browser: "Unknown",
		OS:      "Unknown",
		IsBot:   botPattern.MatchString(ua),
	}

	if tabletPattern.MatchString(ua) {
		info.Device = "tablet"
		info.IsMobile = true
	} else if mobilePattern.MatchString(ua) {
		info.Device = "mobile"
		info.IsMobile = true
	}

	for _, b := range browsers {
		if strings.Contains(ua, b.token) {
			info.Browser = b.name
			break
		}
	}

	for _, s := range systems {
		if strings.Contains(ua, s.token) {
			info.OS = s.name
			break
		}
	}

	return info
}

// IsBot сообщает, похожа ли строка User-Agent на автоматизированный клиент
func IsBot(ua string) bool {
	return botPattern.MatchString(ua)
}
