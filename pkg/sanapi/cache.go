package sanapi

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/grexie/derivatives/pkg/series"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

func pointKey(metric, slug, interval string, ts time.Time) []byte {
	return fmt.Appendf([]byte{}, "%s|%s|%s|%s", metric, slug, interval, ts.UTC().Format(time.RFC3339))
}

// GetSeries reads metric points for [from, to) out of the LevelDB cache and
// fetches the missing intervals through client, persisting whatever it
// fetched. Cached null values count as known-absent and are not refetched.
func GetSeries(ctx context.Context, db *leveldb.DB, pw progress.Writer, client *Client, metric, slug string, from, to time.Time, interval string) (*series.Series, error) {
	step, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	from = from.Truncate(step)
	to = to.Truncate(step)

	cached := []point{}
	for day := from.UTC().Truncate(24 * time.Hour); day.Before(to); day = day.Add(24 * time.Hour) {
		iter := db.NewIterator(util.BytesPrefix(fmt.Appendf([]byte{}, "%s|%s|%s|%s", metric, slug, interval, day.Format("2006-01-02T"))), nil)
		for iter.Next() {
			var p point
			if err := json.Unmarshal(iter.Value(), &p); err != nil {
				continue
			}
			if !p.Datetime.Before(from) && p.Datetime.Before(to) {
				cached = append(cached, p)
			}
		}
		iter.Release()
	}

	slices.SortFunc(cached, func(a, b point) int {
		return a.Datetime.Compare(b.Datetime)
	})
	cached = slices.CompactFunc(cached, func(a, b point) bool {
		return a.Datetime.Equal(b.Datetime)
	})

	// identify missing intervals
	type span struct {
		start time.Time
		end   time.Time
	}
	missing := []span{}
	previous := from.Add(-step)
	for _, p := range cached {
		if !p.Datetime.After(previous.Add(step)) {
			previous = p.Datetime
			continue
		}
		missing = append(missing, span{start: previous.Add(step), end: p.Datetime})
		previous = p.Datetime
	}
	if previous.Add(step).Before(to) {
		missing = append(missing, span{start: previous.Add(step), end: to})
	}

	var tracker *progress.Tracker
	if pw != nil {
		total := int64(0)
		for _, m := range missing {
			total += int64(m.end.Sub(m.start) / step)
		}
		tracker = &progress.Tracker{
			Message: "Fetching " + metric,
			Total:   total,
			Units:   progress.UnitsDefault,
		}
		pw.AppendTracker(tracker)
		tracker.Start()
	}

	for _, m := range missing {
		fetched, err := client.FetchTimeseries(ctx, metric, slug, m.start, m.end, interval)
		if err != nil {
			return nil, err
		}

		for i := range fetched.Times {
			if fetched.Times[i].Before(from) || !fetched.Times[i].Before(to) {
				continue
			}
			p := point{Datetime: fetched.Times[i].UTC()}
			if !fetched.Absent(i) {
				v := fetched.Values[i]
				p.Value = &v
			}
			data, err := json.Marshal(p)
			if err != nil {
				continue
			}
			if err := db.Put(pointKey(metric, slug, interval, p.Datetime), data, nil); err != nil {
				return nil, fmt.Errorf("cache write: %w", err)
			}
			cached = append(cached, p)
			if tracker != nil {
				tracker.Increment(1)
			}
		}
	}

	if tracker != nil {
		tracker.MarkAsDone()
	}

	return newSeriesFromPoints(metric, cached)
}
