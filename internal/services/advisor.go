package services

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"bizops-dashboard/internal/errors"
	"bizops-dashboard/internal/llm"
	"bizops-dashboard/internal/models"
	"bizops-dashboard/internal/observability"
)

// TariffTable is a decoded text-service answer. It is display-only data and
// never feeds the scenario engine.
type TariffTable struct {
	Subject string             `json:"subject,omitempty"`
	Rows    []models.TariffRow `json:"rows"`
	Dropped int                `json:"dropped_lines"`
}

type Narrative struct {
	Subject  string `json:"subject"`
	Country  string `json:"country"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

type BrandLookup interface {
	Brand(id string) (models.Brand, bool)
}

// Advisor wraps the text service with a per-call timeout, metrics and
// logging. Calls are not retried.
type Advisor struct {
	provider llm.Provider
	brands   BrandLookup
	timeout  time.Duration
	markdown goldmark.Markdown
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func NewAdvisor(provider llm.Provider, brands BrandLookup, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{
		provider: provider,
		brands:   brands,
		timeout:  timeout,
		markdown: goldmark.New(),
		metrics:  metrics,
		logger:   logger,
	}
}

func (a *Advisor) ProductTariffs(ctx context.Context) (TariffTable, error) {
	var ext llm.Extraction
	err := a.call(ctx, "product_tariffs", func(ctx context.Context) (err error) {
		ext, err = llm.ExtractTariffs(ctx, a.provider, llm.ProductCategories)
		return err
	})
	if err != nil {
		return TariffTable{}, err
	}
	a.dropped(ctx, "product_tariffs", ext)
	return TariffTable{Rows: ext.Rows, Dropped: ext.Dropped}, nil
}

func (a *Advisor) BrandTariffs(ctx context.Context, brandID string) (TariffTable, error) {
	brand, ok := a.brands.Brand(brandID)
	if !ok {
		return TariffTable{}, errors.NotFound("brand not found")
	}

	var ext llm.Extraction
	err := a.call(ctx, "brand_tariffs", func(ctx context.Context) (err error) {
		ext, err = llm.ExtractProductTariffs(ctx, a.provider, brand.Name, brand.Description)
		return err
	})
	if err != nil {
		return TariffTable{}, err
	}
	a.dropped(ctx, "brand_tariffs", ext)
	return TariffTable{Subject: brand.Name, Rows: ext.Rows, Dropped: ext.Dropped}, nil
}

func (a *Advisor) Relocation(ctx context.Context, subject, country, extra string) (Narrative, error) {
	subject, country = strings.TrimSpace(subject), strings.TrimSpace(country)
	if subject == "" || country == "" {
		return Narrative{}, errors.Validation("subject and country are required")
	}

	var text string
	err := a.call(ctx, "relocation", func(ctx context.Context) (err error) {
		text, err = llm.Relocation(ctx, a.provider, subject, country, extra)
		return err
	})
	if err != nil {
		return Narrative{}, err
	}

	var buf bytes.Buffer
	if err := a.markdown.Convert([]byte(text), &buf); err != nil {
		return Narrative{}, errors.InternalWrap(err, "render narrative")
	}

	return Narrative{
		Subject:  subject,
		Country:  country,
		Markdown: text,
		HTML:     buf.String(),
	}, nil
}

func (a *Advisor) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	ctx, span := observability.StartSpan(ctx, "llm."+op)
	span.SetTag("provider", a.provider.Name())
	defer span.Finish()

	start := time.Now()
	err := fn(ctx)
	a.metrics.LLMCall(op, err, time.Since(start))

	if err != nil {
		span.SetError(err)
		observability.LoggerFrom(ctx, a.logger).Warn("text service call failed",
			"operation", op,
			"provider", a.provider.Name(),
			"error", err)
		return errors.Upstream(err, "text service request failed")
	}
	return nil
}

func (a *Advisor) dropped(ctx context.Context, op string, ext llm.Extraction) {
	if ext.Dropped == 0 {
		return
	}
	a.metrics.LLMDropped(op, ext.Dropped)
	observability.LoggerFrom(ctx, a.logger).Debug("dropped malformed lines",
		"operation", op,
		"dropped", ext.Dropped,
		"kept", len(ext.Rows))
}
