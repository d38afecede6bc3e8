package campfire

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"
)

type Room struct {
	ID         string
	Name       string
	CreatedAt  time.Time
	LastUpdate time.Time

	account *Account
}

// fetchLastUpdate asks for the single most recent message. Rooms that
// have never been spoken in, or whose recent fetch fails, fall back to
// the creation date so at least that day gets an export attempt.
func (r *Room) fetchLastUpdate(ctx context.Context) time.Time {
	body, err := r.account.client.Get(ctx, fmt.Sprintf("/room/%s/recent.xml?limit=1", r.ID))
	if err != nil {
		r.account.logger.Warn("could not fetch last activity", "room", r.Name, "error", err)
		return r.CreatedAt
	}
	var list messageListXML
	if err := xml.Unmarshal(body, &list); err != nil || len(list.Messages) == 0 {
		return r.CreatedAt
	}
	last, err := parseAPITime(list.Messages[len(list.Messages)-1].CreatedAt, r.account.location)
	if err != nil {
		return r.CreatedAt
	}
	return last
}

// ExportDateRange exports one transcript per calendar day across the
// room's effective range, inclusive of both endpoints. Every day is its
// own failure domain; a bad day never stops the walk.
func (r *Room) ExportDateRange(ctx context.Context) {
	from, to := r.dateRange(r.account.conf.Start, r.account.conf.End)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		r.exportDay(ctx, d)
	}
}

// dateRange clamps the requested bounds to the room's activity span:
// there is nothing before creation and nothing after the last message.
func (r *Room) dateRange(start, end time.Time) (time.Time, time.Time) {
	loc := r.CreatedAt.Location()
	from := day(r.CreatedAt)
	to := day(r.LastUpdate)
	if !start.IsZero() {
		if s := dateIn(start, loc); s.After(from) {
			from = s
		}
	}
	if !end.IsZero() {
		if e := dateIn(end, loc); e.Before(to) {
			to = e
		}
	}
	return from, to
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dateIn reinterprets the calendar date of t in loc. Flag dates arrive
// as UTC midnights; the walk happens in the account's zone.
func dateIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
