package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	campfire "github.com/clifff/campfire-export"
)

func main() {
	conf, err := parseFlags()
	if err != nil {
		log.Fatal(err)
	}
	if err := campfire.Run(context.Background(), conf); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() (*campfire.Config, error) {
	// .env is optional; flags and the real environment win.
	_ = godotenv.Load()

	subdomain := flag.String("subdomain", "", "Campfire subdomain to export")
	token := flag.String("token", "", "Campfire API token")
	start := flag.String("start", "", "Export start date (YYYY-MM-DD)")
	end := flag.String("end", "", "Export end date (YYYY-MM-DD)")
	exportRoot := flag.StringP("export-dir", "o", ".", "Directory receiving the campfire/ tree")
	s3Bucket := flag.String("s3-bucket", "", "Mirror exported files to this S3 bucket")
	s3Prefix := flag.String("s3-prefix", "", "Key prefix for mirrored files")
	sesFrom := flag.String("ses-from", "", "Send the run summary from this address")
	sesTo := flag.StringSlice("ses-to", nil, "Send the run summary to these addresses")
	sesSubject := flag.String("ses-subject", "", "Run summary subject")
	flag.Parse()

	conf := &campfire.Config{
		Subdomain:   firstString(*subdomain, os.Getenv("CAMPFIRE_SUBDOMAIN")),
		Token:       firstString(*token, os.Getenv("CAMPFIRE_API_TOKEN")),
		ExportRoot:  *exportRoot,
		S3Bucket:    *s3Bucket,
		S3KeyPrefix: *s3Prefix,
		SESFrom:     *sesFrom,
		SESTo:       *sesTo,
		SESSubject:  *sesSubject,
		Logger:      slog.Default(),
	}

	var err error
	if conf.Start, err = parseDate(*start); err != nil {
		return nil, err
	}
	if conf.End, err = parseDate(*end); err != nil {
		return nil, err
	}
	return conf, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
