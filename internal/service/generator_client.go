package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/noah-isme/tabula-api/internal/models"
	"github.com/noah-isme/tabula-api/pkg/config"
	appErrors "github.com/noah-isme/tabula-api/pkg/errors"
)

// GeneratorRequest is the resource/constraint payload sent to the external
// candidate-schedule generator.
type GeneratorRequest struct {
	Subjects     []models.Subject             `json:"subjects"`
	Faculty      []models.Faculty             `json:"faculty"`
	Rooms        []models.Room                `json:"rooms"`
	Batches      []models.Batch               `json:"batches"`
	Availability []models.FacultyAvailability `json:"availability"`
	DaysPerWeek  int                          `json:"days_per_week"`
	SlotsPerDay  int                          `json:"slots_per_day"`
}

type generatorResponse struct {
	Assignments []models.ClassAssignment `json:"assignments"`
}

// GeneratorClient calls the external schedule generator over HTTP. How the
// candidate was produced is opaque to this service.
type GeneratorClient struct {
	cfg    config.GeneratorConfig
	client *http.Client
	logger *zap.Logger
}

// NewGeneratorClient instantiates GeneratorClient.
func NewGeneratorClient(cfg config.GeneratorConfig, logger *zap.Logger) *GeneratorClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneratorClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Generate requests a candidate assignment set from the external generator.
func (c *GeneratorClient) Generate(ctx context.Context, payload GeneratorRequest) ([]models.ClassAssignment, error) {
	if c.cfg.URL == "" {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, "schedule generator URL is not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode generator request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build generator request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("schedule generator unreachable", zap.String("url", c.cfg.URL), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "schedule generator unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("schedule generator returned error", zap.Int("status", resp.StatusCode))
		return nil, appErrors.Wrap(
			fmt.Errorf("generator responded with status %d", resp.StatusCode),
			appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status,
			"schedule generator returned an error",
		)
	}

	var decoded generatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode generator response")
	}

	return decoded.Assignments, nil
}
