// Package pipeline turns a recorded utterance into a spoken reply artifact:
// fetch, transcribe, respond, synthesize, persist. It runs off the webhook
// path and never reports to the caller except through the artifact.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/internal/artifact"
	"github.com/troikatech/call-router/pkg/ai"
	"github.com/troikatech/call-router/pkg/audio"
	"github.com/troikatech/call-router/pkg/logger"
	"github.com/troikatech/call-router/pkg/metrics"
	"github.com/troikatech/call-router/pkg/otel"
)

// MediaFetcher downloads a recording.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ArtifactStore is where finished replies go.
type ArtifactStore interface {
	Exists(callID string, turn int) bool
	Write(a artifact.Artifact) (bool, error)
}

type Config struct {
	FetchTimeout time.Duration
	STTTimeout   time.Duration
	LLMTimeout   time.Duration
	TTSTimeout   time.Duration
	SoftDeadline time.Duration
	HardDeadline time.Duration

	// Transcripts below this confidence get the generic acknowledgement.
	MinConfidence float64
	VoiceID       string
	MaxSentences  int
}

type TurnRequest struct {
	CallID   string
	Turn     int
	WavURL   string
	Language string
}

type Result struct {
	Transcript string
	Confidence float64
	// SoftSTT is set when the transcript was unusable and the
	// acknowledgement text was sent to the LLM instead.
	SoftSTT   bool
	ReplyText string
	Artifact  string
	// Existing is set when the artifact was already there and nothing ran.
	Existing bool
	Elapsed  time.Duration
}

type Orchestrator struct {
	fetcher MediaFetcher
	stt     ai.Transcriber
	llm     ai.Responder
	tts     ai.Synthesizer
	store   ArtifactStore
	cfg     Config
	logger  *zap.Logger
}

func NewOrchestrator(fetcher MediaFetcher, stt ai.Transcriber, llm ai.Responder, tts ai.Synthesizer, store ArtifactStore, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.MaxSentences <= 0 {
		cfg.MaxSentences = 2
	}
	if cfg.HardDeadline <= 0 {
		cfg.HardDeadline = 8 * time.Second
	}
	return &Orchestrator{
		fetcher: fetcher,
		stt:     stt,
		llm:     llm,
		tts:     tts,
		store:   store,
		cfg:     cfg,
		logger:  logger,
	}
}

// turnState is shared between RunTurn and the goroutine doing the work so
// an abandoned turn can neither report the wrong stage nor persist late.
type turnState struct {
	mu        sync.Mutex
	stage     Stage
	abandoned bool
	persisted bool
}

func (t *turnState) enter(s Stage) {
	t.mu.Lock()
	t.stage = s
	t.mu.Unlock()
}

// RunTurn runs the whole pipeline for one turn within the hard deadline.
// Failures come back as *StageError and leave no artifact behind.
func (o *Orchestrator) RunTurn(ctx context.Context, req TurnRequest) (*Result, error) {
	start := time.Now()
	fields := logger.TurnFields(req.CallID, req.Turn)

	name, err := artifact.Name(req.CallID, req.Turn)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.StartSpan(ctx, "pipeline.turn",
		attribute.String("call.id", req.CallID),
		attribute.Int("turn", req.Turn),
	)

	if o.store.Exists(req.CallID, req.Turn) {
		metrics.RecordTurn("duplicate")
		otel.EndSpan(span, nil)
		return &Result{Artifact: name, Existing: true}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.HardDeadline)
	defer cancel()

	state := &turnState{}
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := o.run(ctx, req, name, state)
		done <- outcome{res, err}
	}()

	var res *Result
	select {
	case out := <-done:
		res, err = out.res, out.err
	case <-ctx.Done():
		state.mu.Lock()
		state.abandoned = true
		stage, persisted := state.stage, state.persisted
		state.mu.Unlock()
		if persisted {
			out := <-done
			res, err = out.res, out.err
		} else {
			cause := ErrDeadline
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				cause = ctx.Err()
			}
			err = stageErr(stage, cause)
		}
	}

	elapsed := time.Since(start)
	otel.EndSpan(span, err)

	if err != nil {
		metrics.RecordTurn("failed")
		o.logger.Warn("Turn failed, caller will hear reassurance",
			append(fields,
				zap.String("stage", string(FailedStage(err))),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)...,
		)
		return nil, err
	}

	res.Elapsed = elapsed
	if o.cfg.SoftDeadline > 0 && elapsed > o.cfg.SoftDeadline {
		metrics.RecordTurn("slow")
		o.logger.Warn("Slow turn", append(fields, zap.Duration("elapsed", elapsed), zap.Duration("target", o.cfg.SoftDeadline))...)
	} else {
		metrics.RecordTurn("ok")
	}
	o.logger.Info("Turn ready",
		append(fields,
			zap.String("artifact", res.Artifact),
			zap.Bool("soft_stt", res.SoftSTT),
			zap.Duration("elapsed", elapsed),
		)...,
	)
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, req TurnRequest, name string, state *turnState) (*Result, error) {
	res := &Result{Artifact: name}

	var recording []byte
	err := o.stage(ctx, state, StageFetch, o.cfg.FetchTimeout, func(ctx context.Context) error {
		var err error
		recording, err = o.fetcher.Fetch(ctx, req.WavURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	if info, err := audio.InspectWAV(recording); err == nil {
		o.logger.Debug("Recording fetched",
			append(logger.TurnFields(req.CallID, req.Turn),
				zap.Duration("duration", info.Duration),
				zap.Int("sample_rate", info.SampleRate),
			)...,
		)
	}

	err = o.stage(ctx, state, StageSTT, o.cfg.STTTimeout, func(ctx context.Context) error {
		tr, err := o.stt.Transcribe(ctx, recording, req.Language)
		if err != nil {
			return err
		}
		res.Transcript, res.Confidence = tr.Text, tr.Confidence
		return nil
	})
	if err != nil {
		return nil, err
	}

	prompt := res.Transcript
	if prompt == "" || res.Confidence < o.cfg.MinConfidence {
		res.SoftSTT = true
		prompt = ai.Acknowledgement(req.Language)
		o.logger.Info("Transcript unusable, using acknowledgement",
			append(logger.TurnFields(req.CallID, req.Turn), zap.Float64("confidence", res.Confidence))...,
		)
	}

	err = o.stage(ctx, state, StageLLM, o.cfg.LLMTimeout, func(ctx context.Context) error {
		reply, err := o.llm.Respond(ctx, prompt, req.Language)
		if err != nil {
			return err
		}
		reply = ai.LimitSentences(reply, o.cfg.MaxSentences)
		if reply == "" {
			return errors.New("empty reply")
		}
		res.ReplyText = reply
		return nil
	})
	if err != nil {
		return nil, err
	}

	var speech []byte
	err = o.stage(ctx, state, StageTTS, o.cfg.TTSTimeout, func(ctx context.Context) error {
		var err error
		speech, err = o.tts.Synthesize(ctx, res.ReplyText, o.cfg.VoiceID)
		if err == nil && len(speech) == 0 {
			err = errors.New("empty audio")
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.abandoned || ctx.Err() != nil {
		return nil, stageErr(StagePersist, ErrDeadline)
	}
	state.stage = StagePersist
	start := time.Now()
	_, err = o.store.Write(artifact.Artifact{
		CallID:   req.CallID,
		Turn:     req.Turn,
		Audio:    speech,
		MIMEType: artifact.MIMEType,
	})
	metrics.RecordStage(string(StagePersist), err == nil, time.Since(start))
	if err != nil {
		return nil, stageErr(StagePersist, err)
	}
	state.persisted = true
	return res, nil
}

// stage runs fn under its own timeout and span and attributes any error to s.
func (o *Orchestrator) stage(ctx context.Context, state *turnState, s Stage, timeout time.Duration, fn func(ctx context.Context) error) error {
	state.enter(s)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ctx, span := otel.StartSpan(ctx, "pipeline."+string(s))

	start := time.Now()
	err := fn(ctx)
	metrics.RecordStage(string(s), err == nil, time.Since(start))
	otel.EndSpan(span, err)

	if err != nil {
		return stageErr(s, err)
	}
	return nil
}
