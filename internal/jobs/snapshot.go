package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Spok95/mindurmind/internal/metrics"
	"github.com/Spok95/mindurmind/internal/models"
	"github.com/Spok95/mindurmind/internal/store"
)

// сколько последних снапшотов держим на диске
const snapshotKeep = 10

// SnapshotJob периодически складывает копию блоба в dir.
// Это локальная страховка от битого основного файла, а не синхронизация.
func SnapshotJob(st *store.Store, dir string) Job {
	return func(_ context.Context) error {
		blob, err := st.Snapshot()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		name := fmt.Sprintf("mum_%s.json", time.Now().UTC().Format("20060102_150405"))
		if err := os.WriteFile(filepath.Join(dir, name), blob, 0o644); err != nil {
			return err
		}
		return prune(dir)
	}
}

func prune(dir string) error {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range ents {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "mum_") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names) // имена с таймстампом сортируются хронологически
	for len(names) > snapshotKeep {
		if err := os.Remove(filepath.Join(dir, names[0])); err != nil {
			return err
		}
		names = names[1:]
	}
	return nil
}

// GaugesJob обновляет размеры коллекций набора данных.
func GaugesJob(st *store.Store) Job {
	return func(_ context.Context) error {
		st.View(func(ds *models.Dataset) {
			metrics.DatasetSize.WithLabelValues("students").Set(float64(len(ds.Students)))
			metrics.DatasetSize.WithLabelValues("parents").Set(float64(len(ds.Parents)))
			metrics.DatasetSize.WithLabelValues("schools").Set(float64(len(ds.Schools)))
			metrics.DatasetSize.WithLabelValues("mood").Set(float64(len(ds.Logs.Mood)))
			metrics.DatasetSize.WithLabelValues("sleep").Set(float64(len(ds.Logs.Sleep)))
			metrics.DatasetSize.WithLabelValues("journal").Set(float64(len(ds.Logs.Journal)))
			metrics.DatasetSize.WithLabelValues("pending_links").Set(float64(len(ds.Links.Pending)))
		})
		return nil
	}
}
