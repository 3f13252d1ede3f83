package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/grexie/derivatives/pkg/db"
	"github.com/grexie/derivatives/pkg/sanapi"
	"github.com/grexie/derivatives/pkg/series"
	"github.com/grexie/derivatives/pkg/transform"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/syndtr/goleveldb/leveldb"
)

func loadEnv(filenames ...string) {
	for _, filename := range filenames {
		if s, err := os.Stat(filename); err == nil && !s.IsDir() {
			godotenv.Load(filename)
		}
	}
}

func envString(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	if v, ok := os.LookupEnv(name); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err != nil {
			log.Fatalf("error parsing env.%s: %v", name, err)
		} else {
			return int(n)
		}
	}
	return fallback
}

func main() {
	if _, ok := os.LookupEnv("ENV"); !ok {
		os.Setenv("ENV", "development")
	}
	loadEnv(".env."+os.Getenv("ENV")+".local", ".env."+os.Getenv("ENV"), ".env.local", ".env")

	apiKey := envString("SAN_API_KEY", "")
	metric := envString("SAN_METRIC", "price_usd")
	slug := envString("SAN_SLUG", "bitcoin")
	interval := envString("SAN_INTERVAL", "1h")
	days := envInt("SAN_DAYS", 30)
	maWindow := time.Duration(envInt("SAN_MA_WINDOW_HOURS", 24)) * time.Hour
	minPeriods := envInt("SAN_MIN_PERIODS", 1)
	changePeriods := envInt("SAN_CHANGE_PERIODS", 24)
	batchDays := envInt("SAN_BATCH_DAYS", 120)
	output := envString("SAN_OUTPUT", "table")
	cachePath := envString("SAN_CACHE_PATH", fmt.Sprintf("%s/derivatives-cache.db", os.TempDir()))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Config")
	t.AppendRows([]table.Row{
		{"SAN_METRIC", metric},
		{"SAN_SLUG", slug},
		{"SAN_INTERVAL", interval},
		{"SAN_DAYS", fmt.Sprintf("%d", days)},
		{"SAN_MA_WINDOW_HOURS", fmt.Sprintf("%0.0f", maWindow.Hours())},
		{"SAN_MIN_PERIODS", fmt.Sprintf("%d", minPeriods)},
		{"SAN_CHANGE_PERIODS", fmt.Sprintf("%d", changePeriods)},
		{"SAN_BATCH_DAYS", fmt.Sprintf("%d", batchDays)},
	})
	t.Render()

	cache, err := leveldb.OpenFile(cachePath, nil)
	if err != nil {
		log.Fatalf("failed to open cache %s: %v", cachePath, err)
	}
	defer cache.Close()

	pw := progress.NewWriter()
	pw.SetMessageLength(40)
	pw.SetTrackerLength(15)
	pw.SetTrackerPosition(progress.PositionRight)
	pw.SetUpdateFrequency(time.Millisecond * 100)
	go pw.Render()

	client := sanapi.New(apiKey, sanapi.WithBatchDays(batchDays))

	now := time.Now().UTC()
	raw, err := sanapi.GetSeries(context.Background(), cache, pw, client, metric, slug, now.AddDate(0, 0, -days), now, interval)
	if err != nil {
		log.Fatalf("failed to fetch %s/%s: %v", metric, slug, err)
	}
	pw.Stop()

	ma, err := transform.MovingAverage(raw, maWindow, minPeriods)
	if err != nil {
		log.Fatalf("moving average: %v", err)
	}
	change, err := transform.Change(raw, changePeriods)
	if err != nil {
		log.Fatalf("change: %v", err)
	}
	maChange, err := transform.MovingAverageChange(raw, maWindow, changePeriods, minPeriods)
	if err != nil {
		log.Fatalf("moving average change: %v", err)
	}

	frame, err := series.Join(raw, ma, change, maChange)
	if err != nil {
		log.Fatalf("join: %v", err)
	}

	switch output {
	case "json":
		data, err := json.Marshal(frame)
		if err != nil {
			log.Fatalf("marshal: %v", err)
		}
		fmt.Println(string(data))
	default:
		frame.Render(os.Stdout, 24)
	}

	if _, ok := os.LookupEnv("MONGO_URL"); ok {
		mongo, err := db.ConnectMongo()
		if err != nil {
			log.Fatalf("failed to connect to MongoDB: %v", err)
		}
		ctx := context.Background()
		if err := db.EnsureSeriesIndexes(mongo, ctx); err != nil {
			log.Fatalf("failed to ensure indexes: %v", err)
		}
		for _, s := range []*series.Series{raw, ma, change, maChange} {
			if err := db.SaveSeries(mongo, ctx, s); err != nil {
				log.Fatalf("failed to store %s: %v", s.Name, err)
			}
		}
	}
}
