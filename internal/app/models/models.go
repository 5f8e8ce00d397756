package models

import (
	"fmt"
	"time"
)

// Date is a calendar date (no time component). Events are booked per day, so
// the wire format is always "2006-01-02" regardless of the column's timezone.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan lets pgx populate a Date from a DATE column.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// SameDay reports whether two dates fall on the same calendar day.
func (d Date) SameDay(other Date) bool {
	return d.Format(dateLayout) == other.Format(dateLayout)
}

// EventDetail is one event joined with its venue and city.
type EventDetail struct {
	EventID   int64  `json:"event_id"`
	EventName string `json:"event_name"`
	Date      Date   `json:"date"`
	VenueName string `json:"venue_name"`
	CityName  string `json:"city_name"`
	State     string `json:"state"`
}

// EventCostSummary carries the cheapest total trip cost (ticket + one night)
// for an event, with the listing that produced it.
type EventCostSummary struct {
	EventID           int64   `json:"event_id"`
	EventName         string  `json:"event_name"`
	CityName          string  `json:"city_name"`
	State             string  `json:"state"`
	Date              Date    `json:"date"`
	CheapestTotalCost float64 `json:"cheapest_total_cost"`
	ListingID         int64   `json:"listing_id"`
}

// EventAvailabilitySummary ranks events by how many available listings sit
// within the radius.
type EventAvailabilitySummary struct {
	EventID           int64   `json:"event_id"`
	EventName         string  `json:"event_name"`
	CityName          string  `json:"city_name"`
	State             string  `json:"state"`
	Date              Date    `json:"date"`
	AvailableListings int64   `json:"available_listings"`
	AvgPricePerNight  float64 `json:"avg_price_per_night"`
	MinDistance       float64 `json:"min_distance"`
}

// EventBelowAverage is an event whose cheapest available listing undercuts the
// city-wide baseline.
type EventBelowAverage struct {
	EventID             int64   `json:"event_id"`
	EventName           string  `json:"event_name"`
	CityName            string  `json:"city_name"`
	State               string  `json:"state"`
	Date                Date    `json:"date"`
	CheapestAirbnbPrice float64 `json:"cheapest_airbnb_price"`
	ListingID           int64   `json:"listing_id"`
}

// EventSearchResult is one event/listing pair from the filtered search, with
// coordinates for both sides so the client can draw the map.
type EventSearchResult struct {
	EventID            int64   `json:"event_id"`
	EventName          string  `json:"event_name"`
	Date               Date    `json:"date"`
	VenueName          string  `json:"venue_name"`
	VenueLat           float64 `json:"venue_lat"`
	VenueLng           float64 `json:"venue_lng"`
	CityName           string  `json:"city_name"`
	State              string  `json:"state"`
	Distance           float64 `json:"distance"`
	AvgAirbnb          float64 `json:"avg_airbnb"`
	AirbnbLat          float64 `json:"airbnb_lat"`
	AirbnbLng          float64 `json:"airbnb_lng"`
	ListingID          int64   `json:"listing_id"`
	EstimatedTotalCost float64 `json:"estimated_total_cost"`
	TicketPrice        float64 `json:"ticket_price"`
}

// SearchFilter holds the optional conjunctive filters for SearchEvents.
// Zero values mean "not set"; MaxDistance and Limit are always applied.
type SearchFilter struct {
	Name        string
	StartDate   *Date
	EndDate     *Date
	MaxDistance float64
	Limit       int
}

// ListingForEvent is one candidate listing for an event, with coordinates for
// map display.
type ListingForEvent struct {
	ListingID     int64   `json:"listing_id"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	PricePerNight float64 `json:"price_per_night"`
	Distance      float64 `json:"distance"`
	TotalCost     float64 `json:"total_cost"`
}

// UserEvent is one entry of a user's want-to-attend list.
type UserEvent struct {
	EventID          int64   `json:"event_id"`
	EventName        string  `json:"event_name"`
	Date             Date    `json:"date"`
	VenueName        string  `json:"venue_name"`
	CityName         string  `json:"city_name"`
	State            string  `json:"state"`
	TicketPrice      float64 `json:"ticket_price"`
	HousingConfirmed string  `json:"housing_confirmed"`
}

// CandidateEvent is a soonest-upcoming event considered by the bulk add.
type CandidateEvent struct {
	EventID int64  `json:"event_id"`
	Name    string `json:"name"`
	Date    Date   `json:"date"`
}

// UserEventRef is an (event, date) pair already on a user's list; the bulk add
// partitions candidates against these.
type UserEventRef struct {
	EventID   int64
	EventDate Date
}

// SkippedEvent explains why one candidate was not added.
type SkippedEvent struct {
	Name   string `json:"name"`
	Date   Date   `json:"date"`
	Reason string `json:"reason"`
}

// Skip reasons reported by the bulk add.
const (
	SkipReasonAlreadyListed = "Already in your list"
	SkipReasonDateConflict  = "Date conflict"
)

// BulkAddResult itemizes the outcome of BulkAddSoonestInCity.
type BulkAddResult struct {
	AddedCount    int              `json:"addedCount"`
	SkippedCount  int              `json:"skippedCount"`
	AddedEvents   []CandidateEvent `json:"addedEvents"`
	SkippedEvents []SkippedEvent   `json:"skippedEvents"`
}
