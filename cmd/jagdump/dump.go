package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/remeh/sizedwaitgroup"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/meigma/jagcache"
	"github.com/meigma/jagcache/cache/memory"
	"github.com/meigma/jagcache/definition"
	"github.com/meigma/jagcache/sound"
)

// archiveCacheBytes bounds the decompressed archives kept between dumps.
const archiveCacheBytes = 128 << 20

type dumpFunc func(ctx context.Context, d *dumper) error

// dumpOrder is the order dumps run in.
var dumpOrder = []string{"title", "varbits", "enums", "structs", "splats", "sfx"}

var dumps = map[string]dumpFunc{
	"title":   dumpTitles,
	"varbits": dumpVarbits,
	"enums":   dumpEnums,
	"structs": dumpStructs,
	"splats":  dumpSplats,
	"sfx":     dumpSounds,
}

func dumpNames() []string {
	return slices.Clone(dumpOrder)
}

type stats struct {
	files  atomic.Int64
	bytes  atomic.Int64
	failed atomic.Int64
}

type dumper struct {
	store    *jagcache.Store
	out      string
	workers  int
	wav      bool
	logger   *slog.Logger
	stats    *stats
	progress rate.Sometimes
}

// run opens the store and runs the configured dumps in order. A dump whose
// index or archive is absent from the store is skipped with a warning.
func run(ctx context.Context, cfg *config, logger *slog.Logger) (*stats, error) {
	if err := os.MkdirAll(cfg.Out, 0o755); err != nil { //nolint:gosec // output is meant to be shared
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	c, err := memory.New(memory.WithMaxBytes(archiveCacheBytes))
	if err != nil {
		return nil, err
	}
	opts := []jagcache.Option{
		jagcache.WithLogger(logger),
		jagcache.WithCache(c),
		jagcache.WithLoadConcurrency(cfg.Workers),
	}
	store, err := jagcache.Open(cfg.Cache, append(opts, cfg.storeOptions()...)...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	start := time.Now()
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "store loaded", "elapsed", elapsed(time.Since(start)))

	d := &dumper{
		store:    store,
		out:      cfg.Out,
		workers:  max(1, cfg.Workers),
		wav:      cfg.WAV,
		logger:   logger,
		stats:    &stats{},
		progress: rate.Sometimes{Interval: 2 * time.Second},
	}
	for _, name := range dumpOrder {
		if !cfg.wants(name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		err := dumps[name](ctx, d)
		switch {
		case errors.Is(err, jagcache.ErrIndexNotFound), errors.Is(err, jagcache.ErrArchiveNotFound):
			logger.WarnContext(ctx, "skipping dump", "dump", name, "err", err)
		case err != nil:
			return nil, fmt.Errorf("dump %s: %w", name, err)
		default:
			logger.InfoContext(ctx, "dumped", "dump", name, "elapsed", elapsed(time.Since(start)))
		}
	}
	return d.stats, nil
}

func (d *dumper) path(elem ...string) string {
	return filepath.Join(append([]string{d.out}, elem...)...)
}

func (d *dumper) mkdir(name string) error {
	if err := os.MkdirAll(d.path(name), 0o755); err != nil { //nolint:gosec // output is meant to be shared
		return fmt.Errorf("failed to create %s directory: %w", name, err)
	}
	return nil
}

func (d *dumper) writeFile(data []byte, elem ...string) error {
	if err := os.WriteFile(d.path(elem...), data, 0o644); err != nil { //nolint:gosec // output is meant to be shared
		return err
	}
	d.stats.files.Add(1)
	d.stats.bytes.Add(int64(len(data)))
	return nil
}

func (d *dumper) writeJSON(v any, elem ...string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return d.writeFile(b, elem...)
}

// jsonLines writes one JSON document per line to name.
type jsonLines struct {
	d   *dumper
	f   *os.File
	w   *bufio.Writer
	enc *json.Encoder
}

func (d *dumper) createLines(name string) (*jsonLines, error) {
	f, err := os.Create(d.path(name))
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriter(f)
	return &jsonLines{d: d, f: f, w: w, enc: json.NewEncoder(w)}, nil
}

func (l *jsonLines) write(v any) error {
	return l.enc.Encode(v)
}

func (l *jsonLines) Close() error {
	err := l.w.Flush()
	var size int64
	if fi, serr := l.f.Stat(); serr == nil {
		size = fi.Size()
	}
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		l.d.stats.files.Add(1)
		l.d.stats.bytes.Add(size)
	}
	return err
}

func (d *dumper) report(ctx context.Context, name string, done, total int) {
	d.progress.Do(func() {
		d.logger.InfoContext(ctx, "progress", "dump", name, "done", done, "total", total)
	})
}

// forEachFile runs fn over the files of a configs archive, workers at a time.
func (d *dumper) forEachFile(ctx context.Context, name string, archive jagcache.ConfigType, fn func(f *jagcache.FSFile) error) error {
	files, err := d.store.Files(int(jagcache.IndexConfigs), int(archive))
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	var done atomic.Int64
	for f := range files.All() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(f); err != nil {
				return fmt.Errorf("file %d: %w", f.ID, err)
			}
			d.report(ctx, name, int(done.Add(1)), files.Len())
			return nil
		})
	}
	return g.Wait()
}

func dumpTitles(ctx context.Context, d *dumper) error {
	for _, name := range []string{"title.jpg", "titlewide.jpg"} {
		a, err := d.store.FindArchive(int(jagcache.IndexBinary), name)
		if errors.Is(err, jagcache.ErrArchiveNotFound) {
			d.logger.WarnContext(ctx, "title image not in store", "name", name)
			continue
		}
		if err != nil {
			return err
		}
		contents, err := d.store.Contents(a.Index(), a.ID())
		if err != nil {
			return err
		}
		if err := d.writeFile(contents, name); err != nil {
			return err
		}
		d.logger.InfoContext(ctx, "dumped title", "name", name, "size", humanBytes(int64(len(contents))))
	}
	return nil
}

func dumpVarbits(ctx context.Context, d *dumper) error {
	files, err := d.store.Files(int(jagcache.IndexConfigs), int(jagcache.ConfigVarbit))
	if err != nil {
		return err
	}
	out, err := d.createLines("varbits.json")
	if err != nil {
		return err
	}
	for f := range files.All() {
		v, err := definition.LoadVarbit(f.ID, f.Contents)
		if err != nil {
			_ = out.Close()
			return err
		}
		if err := out.write(v); err != nil {
			_ = out.Close()
			return err
		}
	}
	if err := out.Close(); err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "dumped varbits", "count", files.Len())
	return nil
}

func dumpEnums(ctx context.Context, d *dumper) error {
	if err := d.mkdir("enums"); err != nil {
		return err
	}
	var count atomic.Int64
	err := d.forEachFile(ctx, "enums", jagcache.ConfigEnum, func(f *jagcache.FSFile) error {
		if definition.IsPlaceholder(f.Contents) {
			return nil
		}
		e, err := definition.LoadEnum(f.ID, f.Contents)
		if err != nil {
			return err
		}
		count.Add(1)
		return d.writeJSON(e, "enums", strconv.Itoa(f.ID)+".json")
	})
	if err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "dumped enums", "count", count.Load())
	return nil
}

func dumpStructs(ctx context.Context, d *dumper) error {
	files, err := d.store.Files(int(jagcache.IndexConfigs), int(jagcache.ConfigStruct))
	if err != nil {
		return err
	}
	out, err := d.createLines("structs.json")
	if err != nil {
		return err
	}
	for f := range files.All() {
		s, err := definition.LoadStruct(f.ID, f.Contents)
		if err != nil {
			_ = out.Close()
			return err
		}
		if err := out.write(s); err != nil {
			_ = out.Close()
			return err
		}
	}
	if err := out.Close(); err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "dumped structs", "count", files.Len())
	return nil
}

func dumpSplats(ctx context.Context, d *dumper) error {
	if err := d.mkdir("splats"); err != nil {
		return err
	}
	var count atomic.Int64
	err := d.forEachFile(ctx, "splats", jagcache.ConfigHitSplat, func(f *jagcache.FSFile) error {
		h, err := definition.LoadHitSplat(f.Contents)
		if err != nil {
			return err
		}
		count.Add(1)
		return d.writeJSON(h, "splats", strconv.Itoa(f.ID)+".json")
	})
	if err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "dumped hitsplats", "count", count.Load())
	return nil
}

// dumpSounds writes every track as a JSON line and, unless disabled, renders
// it to a WAV file. A track that fails to render or write is logged and
// skipped.
func dumpSounds(ctx context.Context, d *dumper) error {
	idx, err := d.store.Index(int(jagcache.IndexSoundEffects))
	if err != nil {
		return err
	}
	if d.wav {
		if err := d.mkdir("sfx"); err != nil {
			return err
		}
	}
	out, err := d.createLines("sfx.json")
	if err != nil {
		return err
	}

	swg := sizedwaitgroup.New(d.workers)
	var count, rendered atomic.Int64
	err = func() error {
		for a := range idx.Archives() {
			contents, err := d.store.Contents(a.Index(), a.ID())
			if err != nil {
				return err
			}
			track, err := sound.Load(contents)
			if err != nil {
				return fmt.Errorf("archive %d: %w", a.ID(), err)
			}
			if err := out.write(track); err != nil {
				return err
			}
			count.Add(1)
			d.report(ctx, "sfx", int(count.Load()), idx.Len())

			if !d.wav {
				continue
			}
			if err := swg.AddWithContext(ctx); err != nil {
				return err
			}
			go func(id int) {
				defer swg.Done()
				if err := d.renderWAV(id, track); err != nil {
					d.stats.failed.Add(1)
					d.logger.WarnContext(ctx, "failed to dump wav track", "archive", id, "err", err)
					return
				}
				rendered.Add(1)
			}(a.ID())
		}
		return nil
	}()
	swg.Wait()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "dumped sound effects", "count", count.Load(), "wav", rendered.Load())
	return nil
}

func (d *dumper) renderWAV(id int, track *sound.Track) (err error) {
	f, err := os.Create(d.path("sfx", strconv.Itoa(id)+".wav"))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	pcm := track.Mix()
	if err := writeWAV(w, pcm); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	d.stats.files.Add(1)
	d.stats.bytes.Add(int64(wavHeaderSize + len(pcm)))
	return nil
}

func humanBytes(n int64) string {
	return humanize.Bytes(uint64(max(n, 0))) //nolint:gosec // clamped to non-negative
}

func elapsed(d time.Duration) string {
	return durafmt.Parse(d.Round(time.Millisecond)).LimitFirstN(2).String()
}
