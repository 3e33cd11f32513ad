// Package meta runs the enrichment pipeline for one document: extract,
// prompt, send, parse and merge.
package meta

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/suykerbuyk/notemeta/internal/archive"
	"github.com/suykerbuyk/notemeta/internal/discover"
	"github.com/suykerbuyk/notemeta/internal/docstore"
	"github.com/suykerbuyk/notemeta/internal/enrichment"
	"github.com/suykerbuyk/notemeta/internal/extract"
	"github.com/suykerbuyk/notemeta/internal/frontmatter"
	"github.com/suykerbuyk/notemeta/internal/history"
	"github.com/suykerbuyk/notemeta/internal/merge"
	"github.com/suykerbuyk/notemeta/internal/notice"
	"github.com/suykerbuyk/notemeta/internal/provider"
	"github.com/suykerbuyk/notemeta/internal/sanitize"
	"github.com/suykerbuyk/notemeta/internal/secrets"
	"github.com/suykerbuyk/notemeta/internal/settings"
)

var (
	ErrNoActiveDocument        = errors.New("no active document")
	ErrUnsupportedDocumentType = errors.New("document is not markdown")
	ErrTimeMetadata            = errors.New("time metadata")
)

// Sender delivers one prompt to a chat endpoint.
type Sender interface {
	Send(ctx context.Context, ep provider.Endpoint, message string) (string, error)
}

// HistoryRecorder stores the outcome of a run.
type HistoryRecorder interface {
	Record(ctx context.Context, run history.Run) (string, error)
}

// TokenResolver finds the API token for a provider.
type TokenResolver interface {
	Resolve(providerID, configured string) (string, secrets.Source)
}

// Env carries the collaborators of a run. Only Store and Client are
// required; the rest fall back to no-ops.
type Env struct {
	Store  docstore.Store
	Client Sender
	Logger *zap.Logger
	Notify notice.Notifier
	Now    func() time.Time

	History   HistoryRecorder
	BackupDir string
	Tokens    TokenResolver
}

// Request names the document and per-run overrides.
type Request struct {
	Path      string
	Selection string
	Force     bool
	// Provider overrides the settings' current provider when set.
	Provider string
}

// Result describes what one Adjust call did.
type Result struct {
	RunID     string
	Path      string
	Provider  string
	Model     string
	LLMCalled bool
	Fields    enrichment.Fields
	// Applied lists the frontmatter keys that changed, in write order.
	Applied  []string
	Backup   string
	Warnings []string
}

// Adjust enriches the frontmatter of req.Path according to s.
func Adjust(ctx context.Context, env Env, s settings.Settings, req Request) (*Result, error) {
	env = env.withDefaults()
	log := env.Logger.With(zap.String("path", req.Path))

	if strings.TrimSpace(req.Path) == "" {
		env.Notify.Notify(notice.Warning, notice.PleaseOpenFile)
		return nil, ErrNoActiveDocument
	}
	if !discover.IsNote(req.Path) {
		env.Notify.Notify(notice.Warning, notice.NotMarkdown)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocumentType, req.Path)
	}

	doc, err := env.Store.Open(ctx, req.Path)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			env.Notify.Notify(notice.Warning, notice.PleaseOpenFile)
			return nil, fmt.Errorf("%w: %v", ErrNoActiveDocument, err)
		}
		return nil, fmt.Errorf("open document: %w", err)
	}

	r := &run{
		env:     env,
		log:     log,
		s:       s,
		force:   req.Force || s.Force(),
		merger:  merge.Merger{Store: env.Store, Path: req.Path},
		current: doc.Fields.Clone(),
		started: env.Now(),
		res:     &Result{Path: req.Path},
	}

	err = r.execute(ctx, doc, req)
	r.record(ctx, err)
	if err != nil {
		return r.res, err
	}

	if len(r.res.Applied) > 0 {
		env.Notify.Notify(notice.Success, notice.MetaUpdated)
	}
	log.Info("metadata adjusted",
		zap.Bool("llm", r.res.LLMCalled),
		zap.Strings("applied", r.res.Applied),
	)
	return r.res, nil
}

func (e Env) withDefaults() Env {
	if e.Store == nil {
		e.Store = docstore.File{}
	}
	if e.Logger == nil {
		e.Logger = zap.NewNop()
	}
	if e.Notify == nil {
		e.Notify = notice.Discard{}
	}
	if e.Now == nil {
		e.Now = time.Now
	}
	return e
}

// run holds the state of one Adjust call.
type run struct {
	env    Env
	log    *zap.Logger
	s      settings.Settings
	force  bool
	merger merge.Merger

	// current mirrors the stored frontmatter as merges land.
	current frontmatter.Map
	started time.Time
	res     *Result
}

func (r *run) execute(ctx context.Context, doc *docstore.Document, req Request) error {
	var ep provider.Endpoint
	llm := r.needsLLM()
	if llm {
		var err error
		ep, err = r.endpoint(req.Provider)
		if err != nil {
			return err
		}
	}

	if err := r.snapshot(doc); err != nil {
		return err
	}

	if llm {
		fields, ok, err := r.synthesize(ctx, ep, extract.Source(doc.Text, req.Selection))
		if err != nil {
			return err
		}
		if ok {
			r.res.Fields = fields
			if err := r.mergeDerived(ctx, fields); err != nil {
				return err
			}
		}
	}

	if err := r.mergeCustom(ctx); err != nil {
		return err
	}

	if r.s.EditTimeEnabled {
		if err := r.mergeTimes(ctx, doc.Created); err != nil {
			r.log.Warn("time metadata not updated", zap.Error(err))
			r.warn(notice.TimeMetadataFailure)
		}
	}
	return nil
}

// needsLLM reports whether any derived field is missing, or force is set.
func (r *run) needsLLM() bool {
	return r.force || len(Missing(r.s, r.current)) > 0
}

// Missing lists the enabled derived keys that fm leaves empty, in the
// order tags, description, title, category.
func Missing(s settings.Settings, fm frontmatter.Map) []string {
	keys := []string{s.TagsField, s.DescriptionField}
	if s.TitleEnabled {
		keys = append(keys, s.TitleField)
	}
	if s.CategoryEnabled {
		keys = append(keys, s.CategoryField)
	}

	var missing []string
	for _, k := range keys {
		if merge.IsEmpty(fm[k]) {
			missing = append(missing, k)
		}
	}
	return missing
}

func (r *run) endpoint(override string) (provider.Endpoint, error) {
	id := r.s.CurrentProvider
	if override != "" {
		id = override
	}
	ep, err := provider.Resolve(r.s.Providers, id)
	if err != nil {
		r.env.Notify.Notify(notice.Error, notice.NoProviderSelected)
		return ep, err
	}
	if r.env.Tokens != nil {
		token, src := r.env.Tokens.Resolve(ep.ProviderID, ep.Token)
		ep.Token = token
		r.log.Debug("provider token", zap.String("source", string(src)))
	}
	r.res.Provider = ep.ProviderID
	r.res.Model = ep.ModelName
	return ep, nil
}

func (r *run) snapshot(doc *docstore.Document) error {
	if r.env.BackupDir == "" {
		return nil
	}
	path, err := archive.SnapshotBytes([]byte(doc.Text), filepath.Base(doc.Path), r.env.BackupDir, r.started)
	if err != nil {
		return fmt.Errorf("backup document: %w", err)
	}
	r.res.Backup = path
	return nil
}

// synthesize asks the model for derived fields. ok is false when there is
// nothing to merge: a blank document, a failed request, or an unparseable
// reply. Only cancellation is returned as an error.
func (r *run) synthesize(ctx context.Context, ep provider.Endpoint, source string) (enrichment.Fields, bool, error) {
	content := extract.Truncate(source, r.s.TruncateLimit(), r.s.TruncateMethod)
	if strings.TrimSpace(content) == "" {
		r.log.Info("document is empty, skipping LLM")
		return enrichment.Fields{}, false, nil
	}

	prompt := enrichment.BuildPrompt(enrichment.PromptInput{
		Content:           content,
		TagsPrompt:        r.s.TagsPrompt,
		Tags:              r.s.Tags,
		DescriptionPrompt: r.s.DescriptionPrompt,
		TitleEnabled:      r.s.TitleEnabled,
		TitlePrompt:       r.s.TitlePrompt,
		CategoryEnabled:   r.s.CategoryEnabled,
		CategoryPrompt:    r.s.CategoryPrompt,
		Categories:        r.s.Categories,
	})

	r.env.Notify.Notify(notice.Info, notice.LLMLoading)
	r.res.LLMCalled = true
	reply, err := r.env.Client.Send(ctx, ep, prompt)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return enrichment.Fields{}, false, ctxErr
	}
	if err != nil {
		r.log.Warn("LLM request failed", zap.Error(err))
		r.warn(notice.LLMError + ": " + err.Error())
		reply = ""
	}

	fields, err := enrichment.Parse(sanitize.StripReasoning(reply))
	if err != nil {
		r.log.Warn("unparseable LLM reply", zap.Error(err))
		r.warn(notice.ParseError)
		return enrichment.Fields{}, false, nil
	}
	if fields.Empty() {
		r.log.Info("LLM reply carried no fields")
		return fields, false, nil
	}
	return fields, true, nil
}

func (r *run) mergeDerived(ctx context.Context, f enrichment.Fields) error {
	if len(f.Tags) > 0 {
		if err := r.apply(ctx, r.s.TagsField, f.Tags, merge.Append); err != nil {
			return err
		}
	}
	if f.Description != "" {
		if err := r.applyByPolicy(ctx, r.s.DescriptionField, f.Description); err != nil {
			return err
		}
	}
	if r.s.TitleEnabled && f.Title != "" {
		if err := r.applyByPolicy(ctx, r.s.TitleField, f.Title); err != nil {
			return err
		}
	}
	if r.s.CategoryEnabled && f.Category != "" {
		if err := r.applyByPolicy(ctx, r.s.CategoryField, f.Category); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) mergeCustom(ctx context.Context) error {
	for _, c := range r.s.CustomMetadata {
		key := strings.TrimSpace(c.Key)
		if key == "" {
			continue
		}
		if err := r.applyByPolicy(ctx, key, c.Value); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) mergeTimes(ctx context.Context, created time.Time) error {
	now := r.env.Now()
	format := r.s.EditTimeFormat
	if strings.TrimSpace(format) == "" {
		format = settings.DefaultEditTimeFormat
	}
	if err := r.apply(ctx, r.s.UpdatedField, FormatTimestamp(now, format), merge.Update); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTimeMetadata, r.s.UpdatedField, err)
	}
	if created.IsZero() {
		return nil
	}
	if err := r.apply(ctx, r.s.CreatedField, FormatTimestamp(created, "YYYY-MM-DD"), merge.Update); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTimeMetadata, r.s.CreatedField, err)
	}
	return nil
}

func (r *run) applyByPolicy(ctx context.Context, key string, value any) error {
	return r.apply(ctx, key, value, merge.PolicyFor(r.force, r.current[key]))
}

func (r *run) apply(ctx context.Context, key string, value any, policy merge.Policy) error {
	changed, err := r.merger.Apply(ctx, key, value, policy)
	if err != nil {
		return fmt.Errorf("merge %s: %w", key, err)
	}
	if changed {
		merge.Apply(r.current, key, value, policy)
		r.res.Applied = append(r.res.Applied, key)
		r.log.Debug("field merged", zap.String("key", key), zap.Stringer("policy", policy))
	}
	return nil
}

func (r *run) warn(msg string) {
	r.res.Warnings = append(r.res.Warnings, msg)
	r.env.Notify.Notify(notice.Warning, msg)
}

// record writes the run to history. Failures are logged only.
func (r *run) record(ctx context.Context, runErr error) {
	if r.env.History == nil {
		return
	}
	entry := history.Run{
		Path:      r.res.Path,
		Provider:  r.res.Provider,
		Model:     r.res.Model,
		StartedAt: r.started,
		Duration:  r.env.Now().Sub(r.started),
		Applied:   r.res.Applied,
	}
	switch {
	case runErr != nil:
		entry.Outcome = history.Failed
		entry.Error = runErr.Error()
	case len(r.res.Applied) > 0:
		entry.Outcome = history.Updated
	default:
		entry.Outcome = history.Unchanged
	}

	// A canceled run is still worth recording.
	id, err := r.env.History.Record(context.WithoutCancel(ctx), entry)
	if err != nil {
		r.log.Warn("could not record run", zap.Error(err))
		return
	}
	r.res.RunID = id
}
