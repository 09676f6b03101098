package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/allgemeinbildung/abubox/internal/config"
	"github.com/allgemeinbildung/abubox/internal/draft"
	"github.com/allgemeinbildung/abubox/internal/kv"
	"github.com/allgemeinbildung/abubox/internal/logger"
)

// main copies every draft key from the store of one config to the store of another.
func main() {
	from := pflag.String("from", "", "config file of the source store")
	to := pflag.String("to", "", "config file of the destination store")
	overwrite := pflag.Bool("overwrite", false, "replace keys that already exist in the destination")
	dryRun := pflag.Bool("dry-run", false, "list the keys without copying")
	level := pflag.String("log-level", "info", "log level")
	pflag.Parse()

	l := logger.New(*level)
	kv.SetLogger(l)
	config.SetLogger(l)

	if *from == "" || *to == "" {
		l.Fatal().Msg("Both --from and --to are required")
	}

	src, fromPrefix, err := open(*from)
	if err != nil {
		l.Fatal().Err(err).Str("config", *from).Msg("Error opening source store")
	}
	defer src.Close()

	dst, toPrefix, err := open(*to)
	if err != nil {
		l.Fatal().Err(err).Str("config", *to).Msg("Error opening destination store")
	}
	defer dst.Close()

	n, err := migrate(src, dst, draft.NewCodec(fromPrefix), draft.NewCodec(toPrefix), *overwrite, *dryRun, l)
	if err != nil {
		l.Error().Err(err).Int("copied", n).Msg("Migration failed")
		os.Exit(1)
	}
	l.Info().Int("copied", n).Bool("dry_run", *dryRun).Msg("Migration finished")
}

func open(path string) (kv.Store, string, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	store, err := kv.Open(cfg.Storage)
	if err != nil {
		return nil, "", err
	}
	return store, cfg.Storage.Prefix, nil
}

// migrate copies values verbatim, so corrupt records stay corrupt in the
// destination. Keys are re-encoded under the destination prefix.
func migrate(src, dst kv.Store, from, to draft.Codec, overwrite, dryRun bool, l zerolog.Logger) (int, error) {
	keys, err := src.Keys(from.Prefix())
	if err != nil {
		return 0, fmt.Errorf("failed to list source keys: %w", err)
	}
	slices.Sort(keys)

	copied := 0
	for _, key := range keys {
		id, ok := from.Decode(key)
		if !ok {
			continue
		}
		target := to.Encode(id)

		if !overwrite {
			if _, exists, err := dst.Get(target); err == nil && exists {
				l.Info().Str("key", target).Msg("Skipping existing key")
				continue
			}
		}

		value, ok, err := src.Get(key)
		if err != nil {
			return copied, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if !ok {
			continue
		}

		if dryRun {
			l.Info().Str("key", key).Str("target", target).Int("bytes", len(value)).Msg("Would copy")
			copied++
			continue
		}
		if err := dst.Set(target, value); err != nil {
			return copied, fmt.Errorf("failed to write %s: %w", target, err)
		}
		l.Debug().Str("key", key).Str("target", target).Msg("Copied")
		copied++
	}
	return copied, nil
}
