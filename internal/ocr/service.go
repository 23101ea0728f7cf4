// Package ocr recognizes text in uploaded images so that photographed or
// scanned pages can be narrated.
package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"speechable/internal/domain"
)

const (
	// MaxImages bounds one batch.
	MaxImages = 10
	// MaxImageSize bounds one upload.
	MaxImageSize = 10 << 20

	workers = 3
)

// Image is one uploaded file.
type Image struct {
	Filename string
	Data     []byte
}

// ImageResult is the outcome for one image. Error is set instead of failing
// the whole batch.
type ImageResult struct {
	Filename       string  `json:"filename"`
	Text           string  `json:"text"`
	Confidence     float64 `json:"confidence"`
	CharacterCount int     `json:"character_count"`
	LinesDetected  int     `json:"lines_detected"`
	Error          string  `json:"error,omitempty"`
}

// BatchResult aggregates a batch. Confidences are percentages.
type BatchResult struct {
	Success         bool          `json:"success"`
	Images          []ImageResult `json:"images"`
	CombinedText    string        `json:"combined_text"`
	TotalConfidence float64       `json:"total_confidence"`
	ImageCount      int           `json:"image_count"`
}

type Service struct {
	recognizer Recognizer
	logger     zerolog.Logger
}

func NewService(recognizer Recognizer, logger zerolog.Logger) *Service {
	return &Service{recognizer: recognizer, logger: logger}
}

// Process recognizes every image, preserving input order.
func (s *Service) Process(ctx context.Context, images []Image) (*BatchResult, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no valid images found in request", domain.ErrInvalidInput)
	}
	if len(images) > MaxImages {
		return nil, fmt.Errorf("%w: at most %d images per request", domain.ErrInvalidInput, MaxImages)
	}
	results := make([]ImageResult, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, img := range images {
		g.Go(func() error {
			results[i] = s.processOne(gctx, img)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		texts []string
		sum   float64
	)
	for _, r := range results {
		if strings.TrimSpace(r.Text) != "" {
			texts = append(texts, r.Text)
		}
		sum += r.Confidence
	}
	return &BatchResult{
		Success:         true,
		Images:          results,
		CombinedText:    strings.Join(texts, "\n\n"),
		TotalConfidence: sum / float64(len(results)),
		ImageCount:      len(results),
	}, nil
}

func (s *Service) processOne(ctx context.Context, img Image) ImageResult {
	start := time.Now()
	res := ImageResult{Filename: img.Filename}
	fail := func(err error) ImageResult {
		s.logger.Warn().Err(err).Str("filename", img.Filename).Msg("ocr image failed")
		res.Error = err.Error()
		return res
	}
	if len(img.Data) > MaxImageSize {
		return fail(fmt.Errorf("image exceeds %d bytes", MaxImageSize))
	}
	prepared, err := Preprocess(img.Data)
	if err != nil {
		return fail(err)
	}
	lines, err := s.recognizer.Recognize(ctx, prepared)
	if err != nil {
		return fail(err)
	}

	var (
		parts []string
		sum   float64
	)
	for _, l := range lines {
		if strings.TrimSpace(l.Text) == "" {
			continue
		}
		parts = append(parts, l.Text)
		sum += l.Confidence
	}
	res.Text = JoinLines(parts)
	res.LinesDetected = len(parts)
	res.CharacterCount = utf8.RuneCountInString(res.Text)
	if len(parts) > 0 {
		res.Confidence = sum / float64(len(parts)) * 100
	}
	s.logger.Info().
		Str("filename", img.Filename).
		Int("lines", res.LinesDetected).
		Dur("took", time.Since(start)).
		Msg("ocr image processed")
	return res
}
