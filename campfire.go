package campfire

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type Config struct {
	Subdomain string
	Token     string
	BaseURL   string // derived from Subdomain when empty

	Start time.Time // zero means each room's creation date
	End   time.Time // zero means each room's last activity

	ExportRoot string // directory that receives the campfire/ tree

	S3Bucket    string
	S3KeyPrefix string

	SESFrom    string
	SESTo      []string
	SESSubject string

	Logger *slog.Logger
}

// Summary describes one finished run. It feeds the final log line and
// the optional SES notification.
type Summary struct {
	Subdomain string
	RunID     string
	Rooms     int
	Days      int
	Uploads   int
	Failures  int
	Started   time.Time
	Finished  time.Time
}

func (s *Summary) Text() string {
	return fmt.Sprintf(
		"Campfire export for %s (run %s)\nrooms: %d\ndays written: %d\nuploads: %d\nfailures: %d\nelapsed: %s\n",
		s.Subdomain, s.RunID, s.Rooms, s.Days, s.Uploads, s.Failures,
		s.Finished.Sub(s.Started).Round(time.Second),
	)
}

// Run executes one full export: resolve the account time zone, list the
// rooms, walk each room's active date range and write transcripts plus
// uploads. Only failures with no narrower recovery scope make Run
// return an error; everything else is logged and skipped.
func Run(ctx context.Context, conf *Config) error {
	if conf.Logger == nil {
		conf.Logger = slog.Default()
	}
	if conf.Subdomain == "" || conf.Token == "" {
		return fmt.Errorf("subdomain and API token are required")
	}
	if conf.BaseURL == "" {
		conf.BaseURL = fmt.Sprintf("https://%s.campfirenow.com", conf.Subdomain)
	}

	client := NewClient(conf)
	location := ResolveTimezone(ctx, client, conf.Logger)

	exporter, err := NewLocalExporter(conf)
	if err != nil {
		return err
	}
	defer exporter.Close()

	if conf.S3Bucket != "" {
		mirror, err := NewS3Mirror(ctx, conf.Logger, conf.S3Bucket, conf.S3KeyPrefix)
		if err != nil {
			return err
		}
		exporter.mirror = mirror
	}

	account := NewAccount(conf, client, exporter, location)
	runErr := account.Export(ctx)

	summary := account.Summary()
	conf.Logger.Info("export finished",
		"rooms", summary.Rooms,
		"days", summary.Days,
		"uploads", summary.Uploads,
		"failures", summary.Failures,
	)

	if conf.SESFrom != "" && len(conf.SESTo) > 0 {
		notifier, err := NewSESNotifier(ctx, conf)
		if err != nil {
			conf.Logger.Error("ses notifier setup failed", "error", err)
		} else if err := notifier.Notify(ctx, summary); err != nil {
			conf.Logger.Error("run summary mail failed", "error", err)
		}
	}

	return runErr
}
