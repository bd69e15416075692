package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/textproc"
	"go.uber.org/zap"
)

// ImageOCRConfig tunes image selection and token filtering
type ImageOCRConfig struct {
	MaxImages          int
	MinImageArea       int
	MinTokenConfidence float64
	StepTimeout        time.Duration
	Hints              []string
}

// ImageOCR downloads menu-looking images, sends them to the shared OCR
// engine and mines the recognized text with the price and review strategies
type ImageOCR struct {
	engine  domain.OCREngine
	fetcher domain.ImageFetcher
	cfg     ImageOCRConfig
	logger  *zap.Logger
}

// OCRRun reports what one OCR pass did
type OCRRun struct {
	Candidates  []domain.ExtractionCandidate
	Invocations int // images sent to the engine
	Skipped     int // images dropped for size or download failure
}

// NewImageOCR creates the OCR strategy. A nil engine or fetcher makes the
// strategy permanently unavailable.
func NewImageOCR(engine domain.OCREngine, fetcher domain.ImageFetcher, cfg ImageOCRConfig, logger *zap.Logger) *ImageOCR {
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 5
	}
	if cfg.MinImageArea <= 0 {
		cfg.MinImageArea = 200 * 200
	}
	if cfg.MinTokenConfidence <= 0 {
		cfg.MinTokenConfidence = 0.3
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 30 * time.Second
	}
	if len(cfg.Hints) == 0 {
		cfg.Hints = []string{"menu", "food", "dish"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageOCR{engine: engine, fetcher: fetcher, cfg: cfg, logger: logger}
}

// Tag identifies the strategy
func (s *ImageOCR) Tag() domain.StrategyTag {
	return domain.StrategyImageOCR
}

// Available reports whether an OCR engine is configured and usable
func (s *ImageOCR) Available() bool {
	return s.engine != nil && s.fetcher != nil && s.engine.Available()
}

// MaxImages is the per-restaurant cap on OCR invocations
func (s *ImageOCR) MaxImages() int {
	return s.cfg.MaxImages
}

// Extract runs OCR over the page's images with the configured cap
func (s *ImageOCR) Extract(ctx context.Context, page *domain.PageContent) ([]domain.ExtractionCandidate, error) {
	if page == nil {
		return nil, nil
	}
	run, err := s.ExtractImages(ctx, page.URL, page.Images, s.cfg.MaxImages)
	return run.Candidates, err
}

// ExtractImages sends at most limit qualifying images to the engine. Failures
// on individual images are joined into the returned error; candidates from
// the other images are still returned.
func (s *ImageOCR) ExtractImages(ctx context.Context, sourceURL string, images []domain.ImageRef, limit int) (OCRRun, error) {
	var run OCRRun
	if !s.Available() || limit <= 0 {
		return run, nil
	}

	var errs []error
	for _, img := range SelectMenuImages(images, s.cfg.Hints) {
		if run.Invocations >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if area := img.Area(); area > 0 && area < s.cfg.MinImageArea {
			run.Skipped++
			continue
		}

		fetched, err := s.fetch(ctx, img.URL)
		if err != nil {
			run.Skipped++
			errs = append(errs, fmt.Errorf("fetch %s: %w", img.URL, err))
			continue
		}
		if fetched.Area() < s.cfg.MinImageArea {
			s.logger.Debug("image below minimum area",
				zap.String("url", img.URL), zap.Int("width", fetched.Width), zap.Int("height", fetched.Height))
			run.Skipped++
			continue
		}

		tokens, err := s.recognize(ctx, fetched.Data)
		run.Invocations++
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", domain.ErrOCRUnavailable, img.URL, err))
			continue
		}

		text := strings.Join(FilterTokens(tokens, s.cfg.MinTokenConfidence), "\n")
		provenance := "ocr " + img.URL
		run.Candidates = append(run.Candidates, MinePriceText(text, sourceURL, domain.StrategyImageOCR, provenance)...)
		run.Candidates = append(run.Candidates, MineReviewText(text, sourceURL, domain.StrategyImageOCR, provenance)...)
	}

	return run, errors.Join(errs...)
}

func (s *ImageOCR) fetch(ctx context.Context, url string) (*domain.Image, error) {
	stepCtx, cancel := context.WithTimeout(ctx, s.cfg.StepTimeout)
	defer cancel()
	return s.fetcher.FetchImage(stepCtx, url)
}

func (s *ImageOCR) recognize(ctx context.Context, data []byte) ([]domain.OCRToken, error) {
	stepCtx, cancel := context.WithTimeout(ctx, s.cfg.StepTimeout)
	defer cancel()
	return s.engine.Recognize(stepCtx, data)
}

// SelectMenuImages keeps images whose URL, alt text, title or class mentions
// one of the hints, de-duplicated by URL, in page order
func SelectMenuImages(images []domain.ImageRef, hints []string) []domain.ImageRef {
	seen := make(map[string]bool, len(images))
	var out []domain.ImageRef
	for _, img := range images {
		if img.URL == "" || seen[img.URL] {
			continue
		}
		haystack := strings.ToLower(strings.Join([]string{img.URL, img.Alt, img.Title, img.Class}, " "))
		for _, hint := range hints {
			if strings.Contains(haystack, strings.ToLower(hint)) {
				seen[img.URL] = true
				out = append(out, img)
				break
			}
		}
	}
	return out
}

// FilterTokens drops low-confidence and boilerplate tokens ("123 photos",
// "See all") and returns the remaining lines
func FilterTokens(tokens []domain.OCRToken, minConfidence float64) []string {
	var lines []string
	for _, t := range tokens {
		text := textproc.CollapseSpace(t.Text)
		if text == "" || t.Confidence < minConfidence {
			continue
		}
		if textproc.IsBoilerplate(text) && len(textproc.FindPrices(text)) == 0 {
			continue
		}
		lines = append(lines, text)
	}
	return lines
}
