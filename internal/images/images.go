// Package images produces WebP variants of raster images and remotely
// compressed copies of PNG and JPEG files in the same destination.
package images

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/notify"
	"git.home.luguber.info/inful/assetbuilder/internal/pipeline"
)

// StageName is the task name of the image stage.
const StageName = "img"

var (
	webpInputs     = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true}
	compressInputs = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}
)

// Options carries the collaborators of the image stage. Zero values select
// the defaults derived from the configuration.
type Options struct {
	Encoder    Encoder
	Compressor Compressor
	Recorder   metrics.Recorder
}

func (o Options) withDefaults(cfg *config.Config) Options {
	if o.Encoder == nil {
		o.Encoder = NewCWebP(cfg.Images.Encoder)
	}
	if o.Compressor == nil && cfg.Images.Remote.APIKey != "" {
		o.Compressor = NewTinyPNG(cfg.Images.Remote)
	}
	if o.Recorder == nil {
		o.Recorder = metrics.NoopRecorder{}
	}
	return o
}

// NewStage builds the image stage: the WebP and the compression chains run
// concurrently over the same sources.
func NewStage(cfg *config.Config, n notify.Notifier, opts Options) *pipeline.Stage {
	opts = opts.withDefaults(cfg)
	return pipeline.ForCategory(StageName, cfg, config.CategoryImages, n,
		[]pipeline.Step{WebPStep(opts.Encoder, cfg.Images.WebPQuality)},
		[]pipeline.Step{CompressStep(cfg, opts.Compressor, opts.Recorder)},
	)
}

// WebPStep encodes every convertible image to a .webp sibling and drops the rest.
func WebPStep(enc Encoder, quality int) pipeline.Step {
	return pipeline.PerFile("webp", func(ctx context.Context, f *pipeline.File) (*pipeline.File, error) {
		ext := strings.ToLower(f.Ext())
		if !webpInputs[ext] {
			return nil, nil
		}
		data, err := enc.EncodeWebP(ctx, f.Contents, ext, quality)
		if err != nil {
			return nil, err
		}
		return f.Derive(f.WithExt(".webp"), data), nil
	})
}

// CompressStep compresses PNG and JPEG files remotely and copies everything
// else. Images whose signature is unchanged and whose output exists are
// skipped. Without a compressor the originals are copied.
func CompressStep(cfg *config.Config, c Compressor, rec metrics.Recorder) pipeline.Step {
	dest := cfg.Path(cfg.Category(config.CategoryImages).Dest)
	cachePath := cfg.Path(cfg.Images.SignatureCache)
	return pipeline.StepFunc{StepName: "tinypng", Fn: func(ctx context.Context, files []*pipeline.File, rep *pipeline.Reporter) ([]*pipeline.File, error) {
		if c == nil {
			if len(files) > 0 {
				slog.Info("No remote compression key configured, copying images unchanged", logfields.Stage(StageName))
			}
			return files, nil
		}

		var cache *SignatureCache
		if len(files) > 0 {
			var err error
			cache, err = OpenSignatureCache(cachePath)
			if err != nil {
				slog.Warn("Signature cache unavailable, compressing every image",
					logfields.Path(cachePath), logfields.Error(err))
			} else {
				defer func() { _ = cache.Close() }()
			}
		}

		out := make([]*pipeline.File, 0, len(files))
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !compressInputs[strings.ToLower(f.Ext())] {
				out = append(out, f)
				continue
			}

			sig := Signature(f.Contents)
			if cache != nil {
				unchanged, err := cache.Unchanged(ctx, f.Rel, sig)
				if err != nil {
					slog.Warn("Signature lookup failed", logfields.File(f.Name()), logfields.Error(err))
				}
				if unchanged && exists(filepath.Join(dest, filepath.FromSlash(f.Rel))) {
					rec.IncSignatureCache(true)
					slog.Debug("Image unchanged, skipping compression", logfields.File(f.Name()))
					continue
				}
				rec.IncSignatureCache(false)
			}

			compressed, err := c.Compress(ctx, f.Contents)
			if err != nil {
				if pipeline.IsFatal(err) {
					return nil, err
				}
				rec.IncRemoteCompression("failed")
				rep.Warn("tinypng", f, errors.WrapError(err, errors.GetCategory(err), "remote compression failed, original copied").Build())
				out = append(out, f)
				continue
			}
			rec.IncRemoteCompression("success")
			if saved := int64(len(f.Contents) - len(compressed)); saved > 0 {
				rec.AddRemoteBytesSaved(saved)
			}
			slog.Info("Image compressed",
				logfields.File(f.Name()), logfields.Bytes(len(compressed)), slog.Int("original_bytes", len(f.Contents)))
			if cache != nil {
				if err := cache.Record(ctx, f.Rel, sig); err != nil {
					slog.Warn("Signature record failed", logfields.File(f.Name()), logfields.Error(err))
				}
			}
			out = append(out, f.Derive(f.Rel, compressed))
		}
		return out, nil
	}}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
