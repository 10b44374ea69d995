// Package extract drives a run: it opens every input in turn, decodes the
// JSON documents it holds and writes the qualifying strings to the sink.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/jacoelho/json2bytes/internal/config"
	"github.com/jacoelho/json2bytes/internal/input"
	"github.com/jacoelho/json2bytes/internal/jsonvalue"
	"github.com/jacoelho/json2bytes/internal/metrics"
	"github.com/jacoelho/json2bytes/internal/predicate"
	"github.com/jacoelho/json2bytes/internal/ratelimit"
	"github.com/jacoelho/json2bytes/internal/selector"
	"github.com/jacoelho/json2bytes/internal/separator"
	"github.com/jacoelho/json2bytes/internal/sink"
	"github.com/jacoelho/json2bytes/internal/walker"
)

// Streams are the process resources an Extractor reads from and writes to.
// Zero fields default to the process standard streams, the OS filesystem and
// a logger that discards everything.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Fs     afero.Fs
	Logger *slog.Logger
}

// Extractor executes one run over the configured inputs.
type Extractor struct {
	inputs      []string
	metricsFile string

	opener    *input.Opener
	sink      *sink.Sink
	walk      walker.Options
	selector  *selector.Selector
	predicate *predicate.Predicate
	limiter   *ratelimit.Limiter
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New prepares a run. Invalid path or where expressions are reported as
// configuration errors wrapping config.ErrInvalid.
func New(cfg *config.Config, streams Streams) (*Extractor, error) {
	if streams.Stdin == nil {
		streams.Stdin = os.Stdin
	}
	if streams.Stdout == nil {
		streams.Stdout = os.Stdout
	}
	if streams.Fs == nil {
		streams.Fs = afero.NewOsFs()
	}
	if streams.Logger == nil {
		streams.Logger = slog.New(slog.DiscardHandler)
	}

	e := &Extractor{
		inputs:      cfg.Inputs,
		metricsFile: cfg.MetricsFile,
		opener:      input.NewOpener(streams.Fs, streams.Stdin),
		sink:        sink.New(streams.Stdout, cfg.SinkOptions()),
		walk: walker.Options{
			MinSize: cfg.MinSize,
			Fields:  walker.NewFieldFilter(cfg.Fields...),
		},
		limiter: ratelimit.New(cfg.RateLimit),
		logger:  streams.Logger,
	}

	if cfg.Path != "" {
		sel, err := selector.Compile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
		}
		e.selector = sel
	}

	if cfg.Where != "" {
		pred, err := predicate.Compile(cfg.Where)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
		}
		e.predicate = pred
	}

	if cfg.MetricsFile != "" {
		e.metrics = metrics.New()
	}

	e.logConfig(cfg)
	return e, nil
}

// logConfig reports the effective settings of the run at debug level.
func (e *Extractor) logConfig(cfg *config.Config) {
	attrs := []any{
		"inputs", len(cfg.Inputs),
		"min_size", e.walk.MinSize,
		"framing", cfg.Framing,
		"format", cfg.Format,
	}
	if e.walk.Fields != nil {
		attrs = append(attrs, "fields", e.walk.Fields.String())
	}
	if cfg.Framing == sink.FramingSeparator && cfg.Format == sink.FormatRaw {
		attrs = append(attrs, "separator", separator.Encode(cfg.Separator))
	}
	if e.selector != nil {
		attrs = append(attrs, "path", e.selector.String())
	}
	if e.predicate != nil {
		attrs = append(attrs, "where", e.predicate.String())
	}
	if !e.limiter.Unlimited() {
		attrs = append(attrs, "documents_per_second", e.limiter.Limit())
	}
	if cfg.Unique {
		attrs = append(attrs, "unique", true)
	}

	e.logger.Debug("configured", attrs...)
}

// Metrics returns the run counters, nil unless a metrics file is configured.
func (e *Extractor) Metrics() *metrics.Metrics {
	return e.metrics
}

// Run processes every input in order and stops at the first error. The
// metrics file, when configured, is written whether or not the run failed.
func (e *Extractor) Run(ctx context.Context) (err error) {
	if e.metricsFile != "" {
		defer func() {
			if werr := e.metrics.WriteFile(e.metricsFile); werr != nil {
				err = errors.Join(err, werr)
			}
		}()
	}

	for _, name := range e.inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.runInput(ctx, name); err != nil {
			return err
		}
	}

	return nil
}

func (e *Extractor) runInput(ctx context.Context, name string) error {
	r, err := e.opener.Open(name)
	if err != nil {
		e.metrics.Error(metrics.ErrorOpen)
		return err
	}
	defer r.Close()

	return e.Stream(ctx, name, r)
}

// Stream extracts from every document of r, a single input called name.
// Output is flushed after each document and before an error is returned.
func (e *Extractor) Stream(ctx context.Context, name string, r io.Reader) error {
	logger := e.logger.With("input", name)
	logger.Debug("reading input")

	if err := ctx.Err(); err != nil {
		return err
	}

	dec := jsonvalue.NewDecoder(r)
	emitted := 0

	for doc, err := range dec.All() {
		if err != nil {
			return e.decodeError(name, dec, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e.metrics.DocumentDecoded(name)

		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		n, err := e.document(name, dec.Count(), doc)
		emitted += n

		if ferr := e.sink.Flush(); ferr != nil && err == nil {
			e.metrics.Error(metrics.ErrorWrite)
			err = ferr
		}
		if err != nil {
			return err
		}
	}

	logger.Debug("finished input", "documents", dec.Count(), "emitted", emitted)
	return nil
}

func (e *Extractor) decodeError(name string, dec *jsonvalue.Decoder, err error) error {
	var syntaxErr *jsonvalue.SyntaxError
	if errors.As(err, &syntaxErr) {
		e.metrics.Error(metrics.ErrorParse)
		return &ParseError{
			Input:    name,
			Document: dec.Count() + 1,
			Offset:   syntaxErr.Offset,
			Err:      err,
		}
	}

	e.metrics.Error(metrics.ErrorRead)
	return fmt.Errorf("%w %s: %w", ErrRead, name, err)
}

// document writes the matches of one decoded document and returns how many
// were emitted.
func (e *Extractor) document(name string, index int, doc jsonvalue.Value) (int, error) {
	emitted := 0

	for root, err := range e.roots(doc) {
		if err != nil {
			return emitted, fmt.Errorf("%s: document %d: %w", name, index, err)
		}

		for m := range walker.Walk(root.Value, e.walk, root.Field) {
			ok, err := e.accept(name, index, m)
			if err != nil {
				e.metrics.Error(metrics.ErrorPredicate)
				return emitted, fmt.Errorf("%s: document %d: field %s: %w", name, index, m.Field.String(), err)
			}
			if !ok {
				e.metrics.StringDropped(metrics.DropPredicate)
				continue
			}

			n, err := e.sink.Write(sink.Record{Input: name, Document: index, Match: m})
			if errors.Is(err, sink.ErrDuplicate) {
				e.metrics.StringDropped(metrics.DropDuplicate)
				continue
			}
			if err != nil {
				e.metrics.Error(metrics.ErrorWrite)
				return emitted, err
			}

			e.metrics.StringEmitted(n)
			emitted++
		}
	}

	return emitted, nil
}

func (e *Extractor) roots(doc jsonvalue.Value) iter.Seq2[selector.Root, error] {
	if e.selector == nil {
		return func(yield func(selector.Root, error) bool) {
			yield(selector.Root{Value: doc, Field: walker.NoField}, nil)
		}
	}
	return e.selector.Roots(doc)
}

func (e *Extractor) accept(name string, index int, m walker.Match) (bool, error) {
	if e.predicate == nil {
		return true, nil
	}

	return e.predicate.Match(predicate.Env{
		Text:     m.Text,
		Field:    m.Field.Name,
		HasField: m.Field.Valid,
		Length:   len(m.Text),
		Document: index,
		Input:    name,
	})
}
