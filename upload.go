package campfire

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"path/filepath"
)

// Upload is a file attached to one message. Metadata and content are
// fetched lazily, only when the owning day is exported. Deleted means
// the remote service no longer has it, which is an expected outcome,
// not a failure.
type Upload struct {
	ID       string
	Filename string
	Size     int64
	Content  []byte
	Deleted  bool
}

type uploadXML struct {
	ID       string `xml:"id"`
	Name     string `xml:"name"`
	ByteSize int64  `xml:"byte-size"`
}

// exportUploads walks the day's upload messages. Each upload is its own
// failure domain: any failure, expected or not, is a logged skip of
// that single upload.
func (t *Transcript) exportUploads(ctx context.Context, dir string) {
	a := t.Room.account
	for _, m := range t.Messages {
		if m.Type != TypeUpload {
			continue
		}
		unit := fmt.Sprintf("upload %s %s message %s",
			t.Room.Name, t.Date.Format("2006-01-02"), m.ID)

		up, err := t.fetchUpload(ctx, m)
		if err != nil {
			a.exporter.LogFailure(unit, err)
			continue
		}
		if up.Deleted {
			a.logger.Info("upload deleted upstream", "room", t.Room.Name, "message", m.ID)
			continue
		}

		rel := filepath.Join("uploads", up.ID, up.Filename)
		if err := a.exporter.ExportFile(ctx, dir, rel, up.Content); err != nil {
			continue
		}
		if err := a.exporter.VerifyExport(dir, rel, up.Size); err != nil {
			a.exporter.LogFailure(unit, err)
			continue
		}
		a.summary.Uploads++
	}
}

// fetchUpload resolves metadata, then content. A 404 on either marks
// the upload deleted; users can remove uploads long after the messages
// referencing them were posted.
func (t *Transcript) fetchUpload(ctx context.Context, m *Message) (*Upload, error) {
	client := t.Room.account.client

	body, err := client.Get(ctx, fmt.Sprintf("/room/%s/messages/%s/upload.xml", t.Room.ID, m.ID))
	if err != nil {
		if IsNotFound(err) {
			return &Upload{Deleted: true}, nil
		}
		return nil, err
	}
	var ux uploadXML
	if err := xml.Unmarshal(body, &ux); err != nil {
		return nil, fmt.Errorf("parse upload metadata: %w", err)
	}
	up := &Upload{ID: ux.ID, Filename: ux.Name, Size: ux.ByteSize}

	content, err := client.Get(ctx, fmt.Sprintf("/room/%s/uploads/%s/%s",
		t.Room.ID, up.ID, url.PathEscape(up.Filename)))
	if err != nil {
		if IsNotFound(err) {
			up.Deleted = true
			return up, nil
		}
		return nil, err
	}
	up.Content = content
	return up, nil
}
