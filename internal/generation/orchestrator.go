package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Conceptual-Machines/aideas-api/internal/cache"
	"github.com/Conceptual-Machines/aideas-api/internal/llm"
	"github.com/Conceptual-Machines/aideas-api/internal/logger"
	"github.com/Conceptual-Machines/aideas-api/internal/metrics"
	"github.com/Conceptual-Machines/aideas-api/internal/models"
	"github.com/Conceptual-Machines/aideas-api/internal/music"
	"github.com/Conceptual-Machines/aideas-api/internal/notation"
	"github.com/Conceptual-Machines/aideas-api/internal/observability"
	"github.com/Conceptual-Machines/aideas-api/internal/prompt"
	"github.com/Conceptual-Machines/aideas-api/internal/store"
	"github.com/Conceptual-Machines/aideas-api/internal/theory"
)

// Content is one accepted generation: the persistence record plus the
// in-memory model and the playable timeline at the request tempo.
type Content struct {
	Record   *models.GeneratedContent
	Fragment *music.Fragment
	Timeline *notation.Timeline
}

// Options configures an Orchestrator. Zero-value collaborators get safe
// defaults (no-op persistence, inline artifacts, default rule set).
type Options struct {
	Provider      llm.Provider
	Model         string
	Validator     *theory.Validator
	Cache         *cache.Cache[*Content]
	ContentStore  store.ContentStore
	ArtifactStore store.ArtifactStore
	Metrics       *metrics.Client
	Langfuse      *observability.LangfuseClient
	MaxAttempts   int
}

// Orchestrator drives requests through prompt construction, the provider
// call, theory validation and storage. It holds no lock of its own: the
// cache's single-producer flight is the only concurrency control, and the
// producer body never blocks anyone else.
type Orchestrator struct {
	provider      llm.Provider
	model         string
	builder       *prompt.Builder
	validator     *theory.Validator
	cache         *cache.Cache[*Content]
	contents      store.ContentStore
	artifacts     store.ArtifactStore
	metrics       *metrics.Client
	sentryMetrics *metrics.SentryMetrics
	langfuse      *observability.LangfuseClient
	maxAttempts   int

	newID func() string
	byID  sync.Map // content ID -> *Content, for playback lookups
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("orchestrator requires a provider")
	}
	if opts.Validator == nil {
		opts.Validator = theory.NewValidator()
	}
	if opts.Cache == nil {
		opts.Cache = cache.New[*Content](0, 0)
	}
	if opts.ContentStore == nil {
		opts.ContentStore = store.NoopContentStore{}
	}
	if opts.ArtifactStore == nil {
		opts.ArtifactStore = store.InlineArtifactStore{}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Langfuse == nil {
		opts.Langfuse = observability.GetClient()
	}

	return &Orchestrator{
		provider:      opts.Provider,
		model:         opts.Model,
		builder:       prompt.NewPromptBuilder(),
		validator:     opts.Validator,
		cache:         opts.Cache,
		contents:      opts.ContentStore,
		artifacts:     opts.ArtifactStore,
		metrics:       opts.Metrics,
		sentryMetrics: metrics.NewSentryMetrics(),
		langfuse:      opts.Langfuse,
		maxAttempts:   opts.MaxAttempts,
		newID:         uuid.NewString,
	}, nil
}

// Generate resolves a request to content, producing it if no identical
// request has been served before. The boolean reports whether the result
// came from cache (including attaching to a concurrent production of the
// same fingerprint).
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*Content, bool, error) {
	start := time.Now()

	norm, err := req.Normalize()
	if err != nil {
		return nil, false, fmt.Errorf("invalid generation request: %w", err)
	}
	spec, err := norm.FragmentSpec()
	if err != nil {
		return nil, false, fmt.Errorf("invalid generation request: %w", err)
	}
	fingerprint := norm.Fingerprint()

	content, hit, err := o.cache.GetOrCreate(ctx, fingerprint, func(ctx context.Context) (*Content, error) {
		return o.produce(ctx, norm, spec, fingerprint)
	})

	if o.metrics != nil {
		o.metrics.RecordCacheLookup(hit)
		o.metrics.RecordGenerationDuration(time.Since(start), err == nil)
	}
	if !hit {
		o.sentryMetrics.RecordGenerationDuration(ctx, time.Since(start), err == nil)
	}

	if err != nil {
		// Surface the producer's own error to every attached waiter.
		var prodErr *cache.ProductionError
		if errors.As(err, &prodErr) {
			return nil, false, prodErr.Err
		}
		return nil, false, err
	}
	return content, hit, nil
}

// produce runs the generate/validate loop for one fingerprint. Exactly one
// produce runs per fingerprint at a time; failures cache nothing.
func (o *Orchestrator) produce(ctx context.Context, req Request, spec llm.FragmentSpec, fingerprint string) (*Content, error) {
	state := StatePending
	logger.Info("generation started", logger.Fields{
		"fingerprint": fingerprint,
		"key":         req.Key,
		"style":       req.Style,
		"difficulty":  req.Difficulty,
		"length":      req.Length,
		"state":       state.String(),
	})

	trace := o.langfuse.StartTrace(ctx, "content.generate", map[string]any{
		"fingerprint": fingerprint,
		"key":         req.Key,
		"style":       req.Style,
	})
	defer trace.Finish()

	systemPrompt, err := o.builder.BuildSystemPrompt()
	if err != nil {
		return nil, err
	}

	budget := newRetryBudget(o.maxAttempts)
	baseSeed := spec.Seed

	var lastViolations []theory.Violation
	var lastRaw string
	var lastErr error
	attempt := 0

	for !budget.exhausted() {
		budget = budget.consume()
		attempt++

		state = StateGenerating
		attemptSpec := spec
		attemptSpec.Seed = baseSeed + int64(attempt-1)

		input, err := o.builder.BuildInputArray(attemptSpec, lastRaw, lastViolations)
		if err != nil {
			return nil, err
		}

		gen := trace.Generation("provider.generate", map[string]any{"attempt": attempt})
		out, err := o.provider.Generate(ctx, &llm.ProviderRequest{
			Model:        o.model,
			SystemPrompt: systemPrompt,
			InputArray:   input,
			Spec:         attemptSpec,
			OutputSchema: &llm.OutputSchema{
				Name:   llm.FragmentSchemaName,
				Schema: llm.GetFragmentOutputSchema(),
			},
		})
		gen.LogProviderExchange(o.model, input, out)

		if err != nil {
			gen.SetLevel("ERROR")
			gen.Finish()
			lastErr = err
			if llm.IsMalformedOutput(err) {
				o.recordRetry("malformed_output")
				logger.Warn("provider output malformed", logger.Fields{
					"fingerprint": fingerprint,
					"attempt":     attempt,
					"error":       err.Error(),
					"state":       state.String(),
				})
				lastRaw, lastViolations = "", nil
				continue
			}
			if ctx.Err() != nil {
				// The caller is gone; retrying would only burn provider quota.
				return nil, err
			}
			// Transport failures are transient: a fresh call against the
			// same budget may succeed.
			o.recordRetry("provider_error")
			logger.Warn("provider call failed", logger.Fields{
				"fingerprint": fingerprint,
				"attempt":     attempt,
				"error":       err.Error(),
				"state":       state.String(),
			})
			lastRaw, lastViolations = "", nil
			continue
		}
		gen.Finish()
		o.recordTokens(ctx, out)

		frag, err := llm.ParseFragment(out.Text, attemptSpec)
		if err != nil {
			lastErr = err
			o.recordRetry("malformed_output")
			logger.Warn("provider output unparseable", logger.Fields{
				"fingerprint": fingerprint,
				"attempt":     attempt,
				"error":       err.Error(),
				"state":       state.String(),
			})
			lastRaw, lastViolations = "", nil
			continue
		}

		state = StateValidating
		result := o.validator.Validate(frag)
		if !result.Passed {
			state = StateRejected
			o.recordRetry("theory_failure")
			o.sentryMetrics.RecordTheoryViolations(ctx, len(result.Errors()))
			logger.Warn("fragment rejected by theory checks", logger.Fields{
				"fingerprint": fingerprint,
				"attempt":     attempt,
				"violations":  len(result.Errors()),
				"state":       state.String(),
			})
			lastRaw, lastViolations = out.Text, result.Violations
			lastErr = nil
			continue
		}

		state = StateAccepted
		content, err := o.assemble(ctx, req, frag, fingerprint, out, attempt)
		if err != nil {
			return nil, err
		}
		logger.Info("generation accepted", logger.Fields{
			"fingerprint": fingerprint,
			"content_id":  content.Record.ID,
			"attempt":     attempt,
			"state":       state.String(),
		})
		return content, nil
	}

	state = StateRetryExhausted
	logger.Error("generation retries exhausted", fmt.Errorf("no acceptable fragment after %d attempts", attempt), logger.Fields{
		"fingerprint": fingerprint,
		"state":       state.String(),
	})
	return nil, &GenerationFailedError{Attempts: attempt, Violations: lastViolations, LastErr: lastErr}
}

// assemble converts an accepted fragment into its stored and cached form.
func (o *Orchestrator) assemble(ctx context.Context, req Request, frag *music.Fragment, fingerprint string, out *llm.RawOutput, attempts int) (*Content, error) {
	musicData, err := json.Marshal(frag)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize fragment: %w", err)
	}
	notationBlob, err := notation.ToNotation(frag)
	if err != nil {
		return nil, err
	}

	timeline := notation.ToTimeline(frag, 0)
	timelineJSON, err := json.Marshal(timeline)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize timeline: %w", err)
	}

	id := o.newID()
	ref, err := o.artifacts.PutTimeline(ctx, id, timelineJSON)
	if err != nil {
		// Playback can fall back to the embedded timeline; don't fail the
		// whole generation over artifact storage.
		logger.Error("timeline artifact upload failed", err, logger.Fields{"content_id": id})
		ref = "inline:" + id
	}

	record := &models.GeneratedContent{
		ID:               id,
		CreatedAt:        time.Now().UTC(),
		Fingerprint:      fingerprint,
		Type:             req.Type,
		Key:              req.Key,
		Style:            req.Style,
		Difficulty:       req.Difficulty,
		Tempo:            req.Tempo,
		MusicData:        musicData,
		NotationBlob:     notationBlob,
		AudioTimelineRef: ref,
		Provider:         out.Provider,
		Model:            o.model,
		Attempts:         attempts,
	}

	if err := o.contents.Create(ctx, record); err != nil {
		// The record is a byproduct; the content itself is already built.
		logger.Error("failed to persist generated content", err, logger.Fields{"content_id": id})
	}

	content := &Content{Record: record, Fragment: frag, Timeline: timeline}
	o.byID.Store(id, content)
	return content, nil
}

// ContentByID returns previously generated content by its record ID.
func (o *Orchestrator) ContentByID(id string) (*Content, bool) {
	v, ok := o.byID.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Content), true
}

func (o *Orchestrator) recordRetry(reason string) {
	if o.metrics != nil {
		o.metrics.RecordRetry(reason)
	}
}

func (o *Orchestrator) recordTokens(ctx context.Context, out *llm.RawOutput) {
	if out == nil || out.Usage == nil {
		return
	}
	total, _ := out.Usage["total_tokens"].(int)
	input, _ := out.Usage["input_tokens"].(int)
	output, _ := out.Usage["output_tokens"].(int)
	if total+input+output == 0 {
		return
	}
	if o.metrics != nil {
		o.metrics.RecordTokenUsage(out.Provider, o.model, total, input, output)
	}
	o.sentryMetrics.RecordTokenUsage(ctx, out.Provider, o.model, total, input, output)
}
