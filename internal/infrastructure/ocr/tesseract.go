// Package ocr recognizes text in menu images with the tesseract CLI.
package ocr

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/macrolens/menulens/internal/domain"
	"go.uber.org/zap"
)

// Config selects the tesseract binary and its recognition settings
type Config struct {
	Binary      string // binary name or absolute path; if empty -> "tesseract"
	Language    string // default "eng"
	PSM         int    // page segmentation mode; 0 leaves tesseract's default
	TessdataDir string
}

// TesseractEngine implements domain.OCREngine by piping images through
// `tesseract stdin stdout ... tsv` and grouping the words into lines
type TesseractEngine struct {
	cfg      Config
	runner   Runner
	lookPath func(file string) (string, error)
	logger   *zap.Logger

	once      sync.Once
	available bool
}

// NewTesseractEngine creates an engine backed by the local tesseract binary
func NewTesseractEngine(cfg Config, logger *zap.Logger) *TesseractEngine {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("ocr")
	return &TesseractEngine{
		cfg:      cfg,
		runner:   execRunner{logger: logger},
		lookPath: exec.LookPath,
		logger:   logger,
	}
}

// Available reports whether the binary can be found. The lookup happens once.
func (e *TesseractEngine) Available() bool {
	e.once.Do(func() {
		_, err := e.lookPath(e.cfg.Binary)
		e.available = err == nil
		if err != nil {
			e.logger.Warn("tesseract not found, OCR disabled", zap.String("binary", e.cfg.Binary), zap.Error(err))
		}
	})
	return e.available
}

// Recognize returns one token per recognized text line
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) ([]domain.OCRToken, error) {
	if !e.Available() {
		return nil, domain.ErrOCRUnavailable
	}

	out, errb, err := e.runner.Run(ctx, image, e.cfg.Binary, e.args()...)
	if err != nil {
		return nil, fmt.Errorf("%w: tesseract: %v: %s", domain.ErrOCRUnavailable, err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	return ParseTSV(string(out)), nil
}

func (e *TesseractEngine) args() []string {
	args := []string{"stdin", "stdout", "-l", e.cfg.Language}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return append(args, "tsv")
}

// TSV columns as written by tesseract
const (
	colLevel = iota
	colPage
	colBlock
	colPar
	colLine
	colWord
	colLeft
	colTop
	colWidth
	colHeight
	colConf
	colText
	tsvColumns
)

const wordLevel = 5

type lineKey struct {
	page, block, par, line string
}

type lineAcc struct {
	words []string
	conf  float64
}

// ParseTSV groups tesseract's word rows into lines. A line's confidence is
// the mean of its word confidences scaled to [0,1]. Rows without text or
// with a negative confidence are skipped. Lines keep reading order.
func ParseTSV(tsv string) []domain.OCRToken {
	var (
		order []lineKey
		lines = make(map[lineKey]*lineAcc)
	)

	for i, row := range strings.Split(tsv, "\n") {
		if i == 0 || row == "" {
			continue // header
		}
		cols := strings.Split(strings.TrimRight(row, "\r"), "\t")
		if len(cols) < tsvColumns {
			continue
		}
		if level, err := strconv.Atoi(cols[colLevel]); err != nil || level != wordLevel {
			continue
		}
		text := strings.TrimSpace(strings.Join(cols[colText:], " "))
		conf, err := strconv.ParseFloat(cols[colConf], 64)
		if text == "" || err != nil || conf < 0 {
			continue
		}

		key := lineKey{cols[colPage], cols[colBlock], cols[colPar], cols[colLine]}
		acc, ok := lines[key]
		if !ok {
			acc = &lineAcc{}
			lines[key] = acc
			order = append(order, key)
		}
		acc.words = append(acc.words, text)
		acc.conf += conf
	}

	tokens := make([]domain.OCRToken, 0, len(order))
	for _, key := range order {
		acc := lines[key]
		conf := acc.conf / float64(len(acc.words)) / 100
		if conf > 1 {
			conf = 1
		}
		tokens = append(tokens, domain.OCRToken{
			Text:       strings.Join(acc.words, " "),
			Confidence: conf,
		})
	}
	return tokens
}
