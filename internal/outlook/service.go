// Package outlook answers climatological queries: it resolves the place,
// fetches the daily record and runs every estimator for the requested day.
package outlook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-odds/internal/calendar"
	"github.com/couchcryptid/climate-odds/internal/climate"
	"github.com/couchcryptid/climate-odds/internal/domain"
	"github.com/couchcryptid/climate-odds/internal/estimate"
	"github.com/couchcryptid/climate-odds/internal/learn"
	"github.com/couchcryptid/climate-odds/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Options tunes the estimators behind a Service.
type Options struct {
	MinValidYears      int
	MinPositiveSamples int

	MLEnabled bool
	Features  learn.BuildOptions
	Training  learn.TrainOptions
}

// DefaultOptions enables the classifier with its default features and training.
func DefaultOptions() Options {
	return Options{
		MinPositiveSamples: estimate.DefaultMinPositiveSamples,
		MLEnabled:          true,
		Features:           learn.DefaultBuildOptions(),
		Training:           learn.DefaultTrainOptions(),
	}
}

// Service computes outlook reports. A nil geocoder limits queries to
// explicit coordinates.
type Service struct {
	source   domain.ClimateSource
	geocoder domain.Geocoder
	opts     Options
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService wires a Service.
func NewService(source domain.ClimateSource, geocoder domain.Geocoder, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		source:   source,
		geocoder: geocoder,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}
}

// Compute validates q, resolves its place, fetches the record and returns the
// report. Invalid input wraps domain.ErrInvalidQuery and unknown places wrap
// domain.ErrLocationNotFound.
func (s *Service) Compute(ctx context.Context, q domain.Query) (domain.Report, error) {
	report, err := s.compute(ctx, q)
	switch {
	case err == nil:
		s.metrics.OutlookRequests.WithLabelValues("success").Inc()
	case errors.Is(err, domain.ErrInvalidQuery):
		s.metrics.OutlookRequests.WithLabelValues("invalid").Inc()
	case errors.Is(err, domain.ErrLocationNotFound):
		s.metrics.OutlookRequests.WithLabelValues("not_found").Inc()
	default:
		s.metrics.OutlookRequests.WithLabelValues("error").Inc()
	}
	return report, err
}

func (s *Service) compute(ctx context.Context, q domain.Query) (domain.Report, error) {
	if err := q.Validate(); err != nil {
		return domain.Report{}, err
	}
	cq, err := q.Calendar()
	if err != nil {
		return domain.Report{}, err
	}
	method, err := q.EstimationMethod()
	if err != nil {
		return domain.Report{}, err
	}

	place, err := domain.ResolvePlace(ctx, q, s.geocoder, s.logger)
	if err != nil {
		return domain.Report{}, err
	}
	ds, err := s.source.Fetch(ctx, place.Longitude, place.Latitude)
	if err != nil {
		return domain.Report{}, fmt.Errorf("fetch climate data: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return domain.Report{}, fmt.Errorf("fetch climate data: %w", err)
	}

	report := domain.NewReport(q, place, cq.Month, cq.Day)
	report.Years = domain.NewYearRange(ds.Years)
	if err := s.analyze(ctx, &report, q, cq, method, ds); err != nil {
		return domain.Report{}, err
	}

	s.logger.Info("outlook computed",
		"report_id", report.ID,
		"query_id", q.ID,
		"lat", place.Latitude,
		"lon", place.Longitude,
		"date", q.Date,
		"method", method.String(),
		"years", report.Years.Count,
	)
	return report, nil
}

// analyze fills the report sections concurrently. Each goroutine owns one
// field, so no locking is needed.
func (s *Service) analyze(ctx context.Context, report *domain.Report, q domain.Query, cq calendar.Query, method estimate.Method, ds *climate.Dataset) error {
	g, _ := errgroup.WithContext(ctx)

	if precip, ok := ds.Series(climate.Precipitation); ok {
		out := &domain.PrecipitationOutlook{}
		report.Precipitation = out
		s.precipitation(g, out, q, cq, method, precip, ds)
	}
	if temp, ok := ds.Series(climate.Temperature); ok {
		out := &domain.ContinuousOutlook{}
		report.Temperature = out
		s.continuous(g, out, cq, temp, q.TemperatureThreshold)
	}
	if wind, ok := ds.Series(climate.WindSpeed); ok {
		out := &domain.ContinuousOutlook{}
		report.Wind = out
		s.continuous(g, out, cq, wind, q.WindThreshold)
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if p := report.Precipitation; p != nil {
		// Expose both methods regardless of which one was selected.
		if p.Selected.Empirical != nil {
			p.Empirical = p.Selected.Empirical
		}
		if p.Selected.Parametric != nil {
			p.Parametric = p.Selected.Parametric
		}
	}
	return nil
}

func (s *Service) precipitation(g *errgroup.Group, out *domain.PrecipitationOutlook, q domain.Query, cq calendar.Query, method estimate.Method, precip climate.Series, ds *climate.Dataset) {
	opts := estimate.Options{
		Threshold:          q.PrecipitationThreshold(),
		MinValidYears:      s.opts.MinValidYears,
		MinPositiveSamples: s.opts.MinPositiveSamples,
	}

	g.Go(func() error {
		return s.timed(method.String(), func() error {
			est, err := estimate.New(method, opts)
			if err != nil {
				return err
			}
			out.Selected, err = est.Estimate(precip, cq)
			return err
		})
	})

	if method == estimate.MethodEmpirical {
		g.Go(func() error {
			return s.timed(estimate.MethodParametric.String(), func() error {
				r, err := estimate.Parametric(precip, cq, estimate.ParametricOptions{
					Threshold:          opts.Threshold,
					MinPositiveSamples: opts.MinPositiveSamples,
				})
				out.Parametric = &r
				return err
			})
		})
	} else {
		g.Go(func() error {
			return s.timed(estimate.MethodEmpirical.String(), func() error {
				r, err := estimate.Empirical(precip, cq, estimate.ThresholdOptions{
					Threshold:     opts.Threshold,
					MinValidYears: opts.MinValidYears,
				})
				out.Empirical = &r
				return err
			})
		})
	}

	g.Go(func() error {
		return s.timed("trend", func() error {
			var err error
			out.Trend, err = estimate.FitTrend(precip, cq)
			return err
		})
	})

	if !s.opts.MLEnabled {
		return
	}
	g.Go(func() error {
		return s.timed("classifier", func() error {
			res, err := s.classify(q, cq, precip, ds)
			if err != nil {
				return err
			}
			out.Model = &res
			return nil
		})
	})
}

// classify trains the rain/no-rain classifier with temperature on the target
// day as the covariate when it is available.
func (s *Service) classify(q domain.Query, cq calendar.Query, precip climate.Series, ds *climate.Dataset) (learn.RunResult, error) {
	build := s.opts.Features
	build.Covariate = nil
	if temp, ok := ds.Series(climate.Temperature); ok {
		build.Covariate = &temp
	}
	data, err := learn.BuildDataset(precip, ds.Longitude, ds.Latitude, cq, build)
	if err != nil {
		return learn.RunResult{}, fmt.Errorf("build features: %w", err)
	}

	run := learn.DefaultRunOptions()
	run.Train = s.opts.Training
	run.Train.Seed = q.Seed
	res, err := learn.Run(data, run)
	if err != nil {
		return learn.RunResult{}, fmt.Errorf("train classifier: %w", err)
	}
	return res, nil
}

func (s *Service) continuous(g *errgroup.Group, out *domain.ContinuousOutlook, cq calendar.Query, series climate.Series, threshold *float64) {
	g.Go(func() error {
		return s.timed("predict", func() error {
			var err error
			out.Prediction, err = estimate.Predict(series, cq, estimate.DefaultTolerance(series.Variable))
			return err
		})
	})
	if threshold != nil {
		g.Go(func() error {
			return s.timed("at_least", func() error {
				f, err := estimate.AtLeast(series, cq, *threshold)
				out.AtLeast = &f
				return err
			})
		})
	}
	g.Go(func() error {
		return s.timed("trend", func() error {
			var err error
			out.Trend, err = estimate.FitTrend(series, cq)
			return err
		})
	})
}

func (s *Service) timed(estimator string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.EstimateDuration.WithLabelValues(estimator).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%s: %w", estimator, err)
	}
	return nil
}
