package domain

import "time"

// Panchanga is the bundle of liturgical labels shown for a calendar day.
type Panchanga struct {
	Date        time.Time `json:"date"`
	Ayana       string    `json:"ayana"`
	Rutu        string    `json:"rutu"`
	Masa        string    `json:"masa"`
	Paksha      string    `json:"paksha"`
	Tithi       string    `json:"tithi"`
	Vasara      string    `json:"vasara"`
	Nakshatra   string    `json:"nakshatra"`
	Yoga        string    `json:"yoga"`
	Karana      string    `json:"karana"`
	SunriseTime string    `json:"sunriseTime"`
	SunsetTime  string    `json:"sunsetTime"`
	Samvatsara  string    `json:"samvatsara"`
}

type EventType string

const (
	EventTypeAradhana EventType = "aradhana"
	EventTypeParyaya  EventType = "paryaya"
	EventTypeUtsava   EventType = "utsava"
	EventTypeEkadashi EventType = "ekadashi"
	EventTypeHabba    EventType = "habba"
	EventTypeOther    EventType = "other"
)

// CalendarEvent is a festival or observance shown on the calendar.
type CalendarEvent struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	TitleKannada string    `json:"titleKannada,omitempty"`
	Date         time.Time `json:"date"`
	Type         EventType `json:"type"`
	Location     string    `json:"location,omitempty"`
	Description  string    `json:"description,omitempty"`
}
