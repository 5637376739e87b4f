package panchanga

import (
	"time"

	"github.com/sodematha/mathasvc/internal/domain"
)

// The tables below are placeholder data keyed off the civil date. They do
// not follow the lunar calendar.
var (
	tithis = [15]string{
		"ಪ್ರತಿಪದಾ (1)", "ದ್ವಿತೀಯಾ (2)", "ತೃತೀಯಾ (3)", "ಚತುರ್ಥೀ (4)", "ಪಂಚಮೀ (5)",
		"ಷಷ್ಠೀ (6)", "ಸಪ್ತಮೀ (7)", "ಅಷ್ಟಮೀ (8)", "ನವಮೀ (9)", "ದಶಮೀ (10)",
		"ಏಕಾದಶೀ (11)", "ದ್ವಾದಶೀ (12)", "ತ್ರಯೋದಶೀ (13)", "ಚತುರ್ದಶೀ (14)", "ಪೂರ್ಣಿಮಾ/ಅಮಾವಾಸ್ಯಾ (15)",
	}

	// indexed by time.Weekday
	vasaras = [7]string{
		"ಭಾನುವಾಸರಃ", "ಸೋಮವಾಸರಃ", "ಮಂಗಳವಾಸರಃ", "ಬುಧವಾಸರಃ", "ಗುರುವಾಸರಃ", "ಶುಕ್ರವಾಸರಃ", "ಶನಿವಾಸರಃ",
	}

	nakshatras = [5]string{"ಅಶ್ವಿನಿ", "ಭರಣಿ", "ಕೃತ್ತಿಕಾ", "ರೋಹಿಣಿ", "ಮೃಗಶಿರಾ"}
)

const (
	shuklaPaksha  = "ಶುಕ್ಲಪಕ್ಷಃ"
	krishnaPaksha = "ಕೃಷ್ಣಪಕ್ಷಃ"

	ayana      = "ಉತ್ತರಾಯಣಂ"
	rutu       = "ಶಿಶಿರಋತುಃ"
	masa       = "ಮಾಘಮಾಸಃ"
	yoga       = "ಶುಭ"
	karana     = "ಬವ"
	sunrise    = "6:58"
	sunset     = "6:25"
	samvatsara = "ವಿಶ್ವಾವಸು ನಾಮ ಸಂವತ್ಸರಃ"
)

// ForDate returns the panchanga for the calendar day of t in t's location.
// The result depends only on the day of month and the weekday.
func ForDate(t time.Time) domain.Panchanga {
	day := t.Day()
	y, m, d := t.Date()

	paksha := shuklaPaksha
	if day > 15 {
		paksha = krishnaPaksha
	}

	return domain.Panchanga{
		Date:        time.Date(y, m, d, 0, 0, 0, 0, t.Location()),
		Ayana:       ayana,
		Rutu:        rutu,
		Masa:        masa,
		Paksha:      paksha,
		Tithi:       tithis[(day-1)%len(tithis)],
		Vasara:      vasaras[t.Weekday()],
		Nakshatra:   nakshatras[day%len(nakshatras)],
		Yoga:        yoga,
		Karana:      karana,
		SunriseTime: sunrise,
		SunsetTime:  sunset,
		Samvatsara:  samvatsara,
	}
}

// ForMonth returns one entry per day of the month.
func ForMonth(year int, month time.Month, loc *time.Location) []domain.Panchanga {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	days := first.AddDate(0, 1, -1).Day()

	out := make([]domain.Panchanga, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, ForDate(first.AddDate(0, 0, i)))
	}
	return out
}
