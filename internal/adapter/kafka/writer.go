// Package kafka publishes derived daily statistics to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/covid-region-plots/internal/config"
	"github.com/couchcryptid/covid-region-plots/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per region day to the sink topic.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	runID  string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic. runID is
// attached to every message so consumers can group a batch.
func NewWriter(cfg *config.Config, runID string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, runID: runID, logger: logger}
}

// Load publishes the whole series in a single WriteMessages call.
func (w *Writer) Load(ctx context.Context, series domain.RegionSeries) error {
	if len(series.Days) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(series.Days))
	for i, d := range series.Days {
		msg, err := serializeToMessage(series, d, w.runID)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %s: %w", series.Region.Name, err)
	}
	w.logger.Debug("stats published", "region", series.Region.Name, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// DailyStatMessage is the JSON value of a published message. Undefined
// statistics are null.
type DailyStatMessage struct {
	Region             string   `json:"region"`
	Date               string   `json:"date"`
	TotalCases         *float64 `json:"total_cases"`
	Tests              *float64 `json:"tests"`
	TotalPositives     *float64 `json:"total_positives"`
	IntensiveCare      *float64 `json:"intensive_care"`
	Deaths             *float64 `json:"deaths"`
	PositivityOverall  *float64 `json:"positivity_overall"`
	PositivityDaily    *float64 `json:"positivity_daily"`
	NewPositives       *float64 `json:"new_positives"`
	GrowthRate         *float64 `json:"growth_rate"`
	IntensiveCareDelta *float64 `json:"intensive_care_delta"`
	RunID              string   `json:"run_id"`
	GeneratedAt        string   `json:"generated_at"`
}

// MessageKey identifies a region day.
func MessageKey(region string, date time.Time) string {
	return region + "|" + date.Format("2006-01-02")
}

// NewDailyStatMessage builds the message value for one day of series.
func NewDailyStatMessage(series domain.RegionSeries, d domain.DailyStat, runID string) DailyStatMessage {
	return DailyStatMessage{
		Region:             series.Region.Name,
		Date:               d.Date.Format("2006-01-02"),
		TotalCases:         nullable(d.TotalCases),
		Tests:              nullable(d.Tests),
		TotalPositives:     nullable(d.TotalPositives),
		IntensiveCare:      nullable(d.IntensiveCare),
		Deaths:             nullable(d.Deaths),
		PositivityOverall:  nullable(d.PositivityOverall),
		PositivityDaily:    nullable(d.PositivityDaily),
		NewPositives:       nullable(d.NewPositives),
		GrowthRate:         nullable(d.GrowthRate),
		IntensiveCareDelta: nullable(d.IntensiveCareDelta),
		RunID:              runID,
		GeneratedAt:        series.GeneratedAt.Format(time.RFC3339),
	}
}

func serializeToMessage(series domain.RegionSeries, d domain.DailyStat, runID string) (kafkago.Message, error) {
	value := NewDailyStatMessage(series, d, runID)
	data, err := json.Marshal(value)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize daily stat: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(MessageKey(series.Region.Name, d.Date)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(series.Region.Name)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "generated_at", Value: []byte(value.GeneratedAt)},
		},
	}, nil
}

// nullable maps NaN and infinities, which JSON cannot carry, to nil.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
