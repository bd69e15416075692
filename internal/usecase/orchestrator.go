package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/strategy"
	"go.uber.org/zap"
)

// OrchestratorConfig holds the escalation thresholds and time limits
type OrchestratorConfig struct {
	GoodEnoughItems  int           // deduplicated items needed to stop early
	QualityBar       float64       // median confidence needed to stop early
	StepTimeout      time.Duration // per render, discovery, download or OCR call
	RestaurantBudget time.Duration // wall clock for one restaurant
}

// OrchestratorDeps are the collaborators of the orchestrator. Discovery and
// OCR are optional.
type OrchestratorDeps struct {
	Content    domain.ContentAccessor
	Discovery  domain.WebsiteDiscovery
	Strategies []strategy.Strategy
	OCR        *strategy.ImageOCR
	Normalizer *Normalizer
	Classifier *Classifier
	Scorer     *Scorer
	Dedup      *Deduplicator
	Recorder   Recorder
	Logger     *zap.Logger
}

// Orchestrator drives one restaurant through primary extraction, fallback
// discovery and OCR escalation, then aggregates the result
type Orchestrator struct {
	content    domain.ContentAccessor
	discovery  domain.WebsiteDiscovery
	strategies []strategy.Strategy
	ocr        *strategy.ImageOCR
	normalizer *Normalizer
	classifier *Classifier
	scorer     *Scorer
	dedup      *Deduplicator
	recorder   Recorder
	logger     *zap.Logger
	cfg        OrchestratorConfig
}

type state int

const (
	statePrimary state = iota
	stateNeedFallback
	stateNeedOCR
	stateFinalize
)

func (s state) String() string {
	switch s {
	case statePrimary:
		return "primary"
	case stateNeedFallback:
		return "need_fallback"
	case stateNeedOCR:
		return "need_ocr"
	default:
		return "finalize"
	}
}

// session is the mutable state of one Extract call
type session struct {
	desc   domain.RestaurantDescriptor
	result *domain.ExtractionResult
	pool   []domain.MenuItem
	pages  []*domain.PageContent
	logger *zap.Logger
}

// NewOrchestrator wires an orchestrator, filling unset collaborators and
// zero config values with defaults
func NewOrchestrator(deps OrchestratorDeps, config OrchestratorConfig) *Orchestrator {
	if config.GoodEnoughItems <= 0 {
		config.GoodEnoughItems = 5
	}
	if config.QualityBar <= 0 {
		config.QualityBar = 0.5
	}
	if config.StepTimeout <= 0 {
		config.StepTimeout = 30 * time.Second
	}
	if config.RestaurantBudget <= 0 {
		config.RestaurantBudget = 3 * time.Minute
	}

	o := &Orchestrator{
		content:    deps.Content,
		discovery:  deps.Discovery,
		strategies: deps.Strategies,
		ocr:        deps.OCR,
		normalizer: deps.Normalizer,
		classifier: deps.Classifier,
		scorer:     deps.Scorer,
		dedup:      deps.Dedup,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
		cfg:        config,
	}
	if o.strategies == nil {
		o.strategies = strategy.TextStrategies()
	}
	o.strategies = strategy.SortByPriority(o.strategies)
	if o.normalizer == nil {
		o.normalizer = NewNormalizer(NormalizerConfig{})
	}
	if o.classifier == nil {
		o.classifier = NewClassifier(nil)
	}
	if o.scorer == nil {
		o.scorer = NewScorer()
	}
	if o.dedup == nil {
		o.dedup = NewDeduplicator(DedupConfig{})
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Extract processes one restaurant. It never fails: every outcome,
// including an invalid descriptor or an exhausted budget, is reported in
// the returned result.
func (o *Orchestrator) Extract(ctx context.Context, desc domain.RestaurantDescriptor) *domain.ExtractionResult {
	start := time.Now()
	result := &domain.ExtractionResult{
		RunID:        uuid.NewString(),
		RestaurantID: desc.ID,
		Items:        []domain.MenuItem{},
		Attempts:     []domain.ExtractionAttempt{},
	}
	logger := o.logger.With(zap.String("run_id", result.RunID), zap.String("restaurant_id", desc.ID))

	if err := desc.Validate(); err != nil {
		logger.Warn("invalid restaurant descriptor", zap.Error(err))
		result.Error = err.Error()
		result.Duration = time.Since(start)
		o.recorder.ObserveResult(result)
		return result
	}

	budgetCtx, cancel := context.WithTimeout(ctx, o.cfg.RestaurantBudget)
	defer cancel()

	s := &session{desc: desc, result: result, logger: logger}
	var interrupted error
	for st := statePrimary; st != stateFinalize; {
		if err := budgetCtx.Err(); err != nil {
			interrupted = err
			logger.Warn("restaurant budget exhausted", zap.Stringer("state", st), zap.Error(err))
			break
		}
		logger.Debug("entering state", zap.Stringer("state", st))
		switch st {
		case statePrimary:
			st = o.runPrimary(budgetCtx, s)
		case stateNeedFallback:
			st = o.runFallback(budgetCtx, s)
		case stateNeedOCR:
			st = o.runOCR(budgetCtx, s)
		}
	}
	if interrupted == nil && budgetCtx.Err() != nil {
		interrupted = budgetCtx.Err()
	}

	o.finalize(s, interrupted)
	result.Duration = time.Since(start)
	o.recorder.ObserveResult(result)

	logger.Info("restaurant processed",
		zap.Bool("success", result.Success),
		zap.Int("items", result.ItemCount),
		zap.Bool("used_fallback", result.UsedFallback),
		zap.Bool("used_ocr", result.UsedOCR),
		zap.Duration("duration", result.Duration))
	return result
}

func (o *Orchestrator) runPrimary(ctx context.Context, s *session) state {
	page, ok := o.renderSource(ctx, s, s.desc.URL)
	if ok && o.runStrategies(ctx, s, page) {
		return stateFinalize
	}
	return stateNeedFallback
}

func (o *Orchestrator) runFallback(ctx context.Context, s *session) state {
	next := stateFinalize
	if len(s.pool) == 0 {
		next = stateNeedOCR
	}
	if o.discovery == nil {
		return next
	}

	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	fallback, err := o.discovery.FindWebsite(stepCtx, s.desc.Name, s.desc.Location)
	cancel()
	if err != nil {
		s.logger.Warn("fallback discovery failed", zap.Error(err))
		return next
	}
	if fallback == "" || SameSource(fallback, s.desc.URL) {
		s.logger.Debug("no fallback source", zap.String("discovered", fallback))
		return next
	}

	s.result.UsedFallback = true
	s.result.FallbackURL = fallback
	page, ok := o.renderSource(ctx, s, fallback)
	if ok && o.runStrategies(ctx, s, page) {
		return stateFinalize
	}
	if len(s.pool) == 0 {
		return stateNeedOCR
	}
	return stateFinalize
}

func (o *Orchestrator) runOCR(ctx context.Context, s *session) state {
	if o.ocr == nil || !o.ocr.Available() {
		s.logger.Debug("ocr unavailable, skipping")
		return stateFinalize
	}

	budget := o.ocr.MaxImages()
	for _, page := range s.pages {
		if budget <= 0 || ctx.Err() != nil {
			break
		}
		start := time.Now()
		run, err := o.ocr.ExtractImages(ctx, page.URL, page.Images, budget)
		budget -= run.Invocations
		if run.Invocations > 0 {
			s.result.UsedOCR = true
		}
		o.recorder.ObserveOCR(run.Invocations)

		attempt := domain.ExtractionAttempt{
			SourceURL:      page.URL,
			Strategy:       domain.StrategyImageOCR,
			CandidateCount: len(run.Candidates),
			Elapsed:        time.Since(start),
		}
		if err != nil {
			attempt.Error = err.Error()
		}
		o.addAttempt(s, attempt)
		o.absorb(s, run.Candidates)
	}
	return stateFinalize
}

// renderSource fetches url. On failure every text strategy gets an attempt
// record carrying the error, since none of them could run.
func (o *Orchestrator) renderSource(ctx context.Context, s *session, source string) (*domain.PageContent, bool) {
	start := time.Now()
	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()

	page, err := o.content.Render(stepCtx, source)
	if err == nil && page == nil {
		err = domain.ErrContentUnavailable
	}
	if err != nil {
		s.logger.Warn("source unavailable", zap.String("url", source), zap.Error(err))
		elapsed := time.Since(start)
		for _, strat := range o.strategies {
			o.addAttempt(s, domain.ExtractionAttempt{
				SourceURL: source,
				Strategy:  strat.Tag(),
				Elapsed:   elapsed,
				Error:     fmt.Sprintf("render: %v", err),
			})
		}
		return nil, false
	}

	if page.URL == "" {
		cp := *page
		cp.URL = source
		page = &cp
	}
	s.pages = append(s.pages, page)
	return page, true
}

// runStrategies applies the text strategies in priority order and reports
// whether the pool became good enough to stop
func (o *Orchestrator) runStrategies(ctx context.Context, s *session, page *domain.PageContent) bool {
	for _, strat := range o.strategies {
		if ctx.Err() != nil {
			return false
		}
		cands, attempt := o.runStrategy(ctx, strat, page)
		o.addAttempt(s, attempt)
		o.absorb(s, cands)
		if o.goodEnough(s.pool) {
			s.logger.Debug("stopping early",
				zap.String("after", string(strat.Tag())), zap.Int("items", len(s.pool)))
			return true
		}
	}
	return false
}

func (o *Orchestrator) runStrategy(ctx context.Context, strat strategy.Strategy, page *domain.PageContent) (cands []domain.ExtractionCandidate, attempt domain.ExtractionAttempt) {
	start := time.Now()
	attempt = domain.ExtractionAttempt{SourceURL: page.URL, Strategy: strat.Tag()}
	stepCtx, cancel := context.WithTimeout(ctx, o.cfg.StepTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			cands = nil
			attempt.Error = fmt.Sprintf("strategy panicked: %v", r)
		}
		attempt.CandidateCount = len(cands)
		attempt.Elapsed = time.Since(start)
	}()

	cands, err := strat.Extract(stepCtx, page)
	if err != nil {
		attempt.Error = err.Error()
	}
	return cands, attempt
}

// absorb normalizes, classifies and scores candidates and merges them into
// the running pool
func (o *Orchestrator) absorb(s *session, cands []domain.ExtractionCandidate) {
	if len(cands) == 0 {
		return
	}
	items, rejected := o.normalizer.NormalizeAll(cands)
	if rejected > 0 {
		s.logger.Debug("candidates rejected", zap.Int("rejected", rejected), zap.Int("accepted", len(items)))
	}
	for i := range items {
		o.classifier.Apply(&items[i])
		items[i].Confidence = o.scorer.Score(items[i])
	}
	s.pool = o.dedup.Dedup(append(s.pool, items...))
}

func (o *Orchestrator) addAttempt(s *session, attempt domain.ExtractionAttempt) {
	s.result.Attempts = append(s.result.Attempts, attempt)
	o.recorder.ObserveAttempt(attempt)
}

func (o *Orchestrator) goodEnough(pool []domain.MenuItem) bool {
	return len(pool) >= o.cfg.GoodEnoughItems && MedianConfidence(pool) >= o.cfg.QualityBar
}

func (o *Orchestrator) finalize(s *session, interrupted error) {
	items := o.dedup.Dedup(s.pool)
	for i := range items {
		o.classifier.Apply(&items[i])
		if rescored := o.scorer.Score(items[i]); rescored > items[i].Confidence {
			items[i].Confidence = rescored
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Confidence != items[j].Confidence {
			return items[i].Confidence > items[j].Confidence
		}
		return items[i].Name < items[j].Name
	})

	r := s.result
	r.Items = items
	r.ItemCount = len(items)
	r.Success = len(items) > 0

	switch {
	case interrupted != nil && errors.Is(interrupted, context.DeadlineExceeded):
		r.Error = domain.ErrBudgetExceeded.Error()
	case interrupted != nil:
		r.Error = interrupted.Error()
	case !r.Success:
		r.Error = domain.ErrAllSourcesExhausted.Error()
	}
}

// MedianConfidence returns the median item confidence, or 0 for no items
func MedianConfidence(items []domain.MenuItem) float64 {
	if len(items) == 0 {
		return 0
	}
	scores := make([]float64, len(items))
	for i, item := range items {
		scores[i] = item.Confidence
	}
	sort.Float64s(scores)
	mid := len(scores) / 2
	if len(scores)%2 == 1 {
		return scores[mid]
	}
	return (scores[mid-1] + scores[mid]) / 2
}

// SameSource reports whether two URLs point at the same site page, ignoring
// scheme, a leading "www.", letter case and a trailing slash
func SameSource(a, b string) bool {
	return canonicalSource(a) == canonicalSource(b)
}

func canonicalSource(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(raw)), "/")
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	return host + strings.TrimSuffix(u.EscapedPath(), "/") + queryPart(u)
}

func queryPart(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}
