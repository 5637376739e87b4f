package panchanga

import (
	_ "embed"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/sodematha/mathasvc/internal/domain"
)

//go:embed events.yaml
var builtinEvents []byte

const dateLayout = "2006-01-02"

type eventEntry struct {
	ID           string           `yaml:"id"`
	Title        string           `yaml:"title"`
	TitleKannada string           `yaml:"titleKannada"`
	Date         string           `yaml:"date"`
	Type         domain.EventType `yaml:"type"`
	Location     string           `yaml:"location"`
	Description  string           `yaml:"description"`
}

// Service serves the panchanga tables and the festival calendar.
type Service struct {
	log    zerolog.Logger
	loc    *time.Location
	events []domain.CalendarEvent
}

// NewService loads the built-in festival calendar. Event dates are civil
// days in loc.
func NewService(log zerolog.Logger, loc *time.Location) (*Service, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{
		log: log.With().Str("module", "panchanga").Logger(),
		loc: loc,
	}

	events, err := parseEvents(builtinEvents, loc)
	if err != nil {
		return nil, err
	}
	s.events = events

	s.log.Debug().Int("events", len(events)).Msg("loaded calendar")
	return s, nil
}

func parseEvents(b []byte, loc *time.Location) ([]domain.CalendarEvent, error) {
	var doc struct {
		Events []eventEntry `yaml:"events"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal events")
	}

	out := make([]domain.CalendarEvent, 0, len(doc.Events))
	for _, e := range doc.Events {
		date, err := time.ParseInLocation(dateLayout, e.Date, loc)
		if err != nil {
			return nil, errors.Wrapf(err, "event %s has invalid date", e.ID)
		}
		typ := e.Type
		if typ == "" {
			typ = domain.EventTypeOther
		}
		out = append(out, domain.CalendarEvent{
			ID:           e.ID,
			Title:        e.Title,
			TitleKannada: e.TitleKannada,
			Date:         date,
			Type:         typ,
			Location:     e.Location,
			Description:  e.Description,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ForDate is the panchanga of t's civil day in the service location.
func (s *Service) ForDate(t time.Time) domain.Panchanga {
	return ForDate(t.In(s.loc))
}

func (s *Service) ForMonth(year int, month time.Month) []domain.Panchanga {
	return ForMonth(year, month, s.loc)
}

// Events returns the events whose day falls within [from, to], both inclusive.
func (s *Service) Events(from, to time.Time) []domain.CalendarEvent {
	fy, fm, fd := from.In(s.loc).Date()
	ty, tm, td := to.In(s.loc).Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, s.loc)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, s.loc)

	var out []domain.CalendarEvent
	for _, e := range s.events {
		if e.Date.Before(start) || e.Date.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}
