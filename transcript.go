package campfire

import (
	"bytes"
	"context"
	"fmt"
	"time"
)

// Transcript is one room's messages for one calendar day. It only lives
// long enough to be written out.
type Transcript struct {
	Room     *Room
	Date     time.Time
	Messages []*Message
}

// exportDay fetches and writes one day. The raw XML is the anchor: if
// it cannot be fetched, parsed or written, the whole day is abandoned.
// The plaintext, HTML and upload phases that follow are independent of
// each other, so one failing leaves the rest intact.
func (r *Room) exportDay(ctx context.Context, date time.Time) {
	a := r.account
	unit := fmt.Sprintf("transcript %s %s", r.Name, date.Format("2006-01-02"))
	apiPath := fmt.Sprintf("/room/%s/transcript/%d/%d/%d",
		r.ID, date.Year(), int(date.Month()), date.Day())

	body, err := a.client.Get(ctx, apiPath+".xml")
	if err != nil {
		a.exporter.LogFailure(unit, err)
		return
	}

	transcript, err := parseTranscript(ctx, r, date, body)
	if err != nil {
		a.exporter.LogFailure(unit, err)
		return
	}
	if len(transcript.Messages) == 0 {
		a.logger.Info("no messages", "room", r.Name, "date", date.Format("2006-01-02"))
		return
	}

	a.logger.Info("exporting transcript",
		"room", r.Name,
		"date", date.Format("2006-01-02"),
		"messages", len(transcript.Messages),
	)
	dir := a.exporter.ExportDir(r, date)

	if err := a.exporter.ExportFile(ctx, dir, "transcript.xml", body); err != nil {
		return
	}
	if err := a.exporter.VerifyExport(dir, "transcript.xml", int64(len(body))); err != nil {
		a.exporter.LogFailure(unit, err)
		return
	}
	a.summary.Days++

	transcript.exportPlaintext(ctx, dir)
	transcript.exportHTML(ctx, dir, apiPath)
	transcript.exportUploads(ctx, dir)
}

func (t *Transcript) exportPlaintext(ctx context.Context, dir string) {
	var buf bytes.Buffer
	for _, m := range t.Messages {
		buf.WriteString(m.Render())
	}
	_ = t.Room.account.exporter.ExportFile(ctx, dir, "transcript.txt", buf.Bytes())
}

// exportHTML stores the transcript as Campfire itself renders it. The
// HTML comes from the API, not from a local template.
func (t *Transcript) exportHTML(ctx context.Context, dir, apiPath string) {
	a := t.Room.account
	body, err := a.client.Get(ctx, apiPath)
	if err != nil {
		a.exporter.LogFailure(
			fmt.Sprintf("html transcript %s %s", t.Room.Name, t.Date.Format("2006-01-02")), err)
		return
	}
	_ = a.exporter.ExportFile(ctx, dir, "transcript.html", body)
}
