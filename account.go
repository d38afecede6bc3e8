package campfire

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"time"
)

type roomListXML struct {
	Rooms []roomXML `xml:"room"`
}

type roomXML struct {
	ID        string `xml:"id"`
	Name      string `xml:"name"`
	CreatedAt string `xml:"created-at"`
}

// Account ties one run together: the configuration, the API client, the
// exporter and the run-owned username cache every message shares.
type Account struct {
	conf     *Config
	client   *Client
	exporter *LocalExporter
	location *time.Location
	users    *userCache
	logger   *slog.Logger

	summary Summary
}

func NewAccount(conf *Config, client *Client, exporter *LocalExporter, location *time.Location) *Account {
	return &Account{
		conf:     conf,
		client:   client,
		exporter: exporter,
		location: location,
		users:    newUserCache(client, conf.Logger),
		logger:   conf.Logger,
	}
}

// Export walks every room in the account, strictly one after another.
// The room list is the one fetch with no narrower recovery scope:
// without it there is nothing to export, so its failure ends the run.
// Everything below room level is fault-isolated by the per-day driver.
func (a *Account) Export(ctx context.Context) error {
	a.summary.Started = time.Now()

	body, err := a.client.Get(ctx, "/rooms.xml")
	if err != nil {
		a.exporter.LogFailure("room list", err)
		return fmt.Errorf("fetch room list: %w", err)
	}
	var list roomListXML
	if err := xml.Unmarshal(body, &list); err != nil {
		a.exporter.LogFailure("room list", err)
		return fmt.Errorf("parse room list: %w", err)
	}

	for i := range list.Rooms {
		room, err := a.newRoom(ctx, &list.Rooms[i])
		if err != nil {
			a.exporter.LogFailure(fmt.Sprintf("room %s", list.Rooms[i].Name), err)
			continue
		}
		a.logger.Info("exporting room",
			"room", room.Name,
			"created", room.CreatedAt.Format("2006-01-02"),
			"last_update", room.LastUpdate.Format("2006-01-02"),
		)
		room.ExportDateRange(ctx)
		a.summary.Rooms++
	}

	a.summary.Finished = time.Now()
	return nil
}

func (a *Account) newRoom(ctx context.Context, rx *roomXML) (*Room, error) {
	created, err := parseAPITime(rx.CreatedAt, a.location)
	if err != nil {
		return nil, fmt.Errorf("parse room created-at %q: %w", rx.CreatedAt, err)
	}
	room := &Room{
		ID:        rx.ID,
		Name:      rx.Name,
		CreatedAt: created,
		account:   a,
	}
	room.LastUpdate = room.fetchLastUpdate(ctx)
	return room, nil
}

func (a *Account) Summary() *Summary {
	s := a.summary
	s.Subdomain = a.conf.Subdomain
	s.RunID = a.exporter.runID
	s.Failures = a.exporter.failures
	return &s
}

// parseAPITime reads the API's ISO 8601 timestamps (UTC) and shifts
// them into the account's zone.
func parseAPITime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}
