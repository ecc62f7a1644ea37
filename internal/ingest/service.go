// Package ingest builds and executes write plans: the service turns raw
// payloads into immutable plans, the orchestrator persists them across
// the repository and storage backend with rollback on partial failure.
package ingest

import (
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/classify"
	"github.com/marcus-grant/depo/internal/media"
	"github.com/marcus-grant/depo/internal/models"
	"github.com/marcus-grant/depo/internal/shortcode"
)

// Config bounds the ingest pipeline. Injected explicitly; never global.
type Config struct {
	MinCodeLength int
	MaxSizeBytes  int64
	MaxURLLength  int
}

// Defaults used for zero-valued fields.
const (
	DefaultMinCodeLength = 8
	DefaultMaxSizeBytes  = 1 << 20
	DefaultMaxURLLength  = 2048
)

func (c Config) withDefaults() Config {
	if c.MinCodeLength == 0 {
		c.MinCodeLength = DefaultMinCodeLength
	}
	if c.MaxSizeBytes == 0 {
		c.MaxSizeBytes = DefaultMaxSizeBytes
	}
	if c.MaxURLLength == 0 {
		c.MaxURLLength = DefaultMaxURLLength
	}
	return c
}

// Request is one ingest call. Exactly one of PayloadBytes, PayloadPath,
// LinkURL must be set; the rest are optional hints and attribution.
type Request struct {
	PayloadBytes []byte
	PayloadPath  string
	LinkURL      string

	Filename        string
	DeclaredMIME    string
	RequestedFormat models.ContentFormat
	OriginAt        int64

	OwnerID    int64
	Visibility models.Visibility
}

// Service assembles write plans. No database access, no storage writes:
// everything here is computable from the request alone.
type Service struct {
	cfg Config
}

// NewService creates the plan builder with the given bounds.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg.withDefaults()}
}

// BuildPlan validates the request, classifies the payload, and returns
// the immutable plan the orchestrator consumes exactly once.
func (s *Service) BuildPlan(req Request) (models.WritePlan, error) {
	if req.LinkURL != "" {
		if req.PayloadBytes != nil || req.PayloadPath != "" {
			return models.WritePlan{}, fmt.Errorf(
				"ingest: link ingestion accepts no payload source: %w", apperr.ErrValidation)
		}
		return s.buildLinkPlan(strings.TrimSpace(req.LinkURL), req.OriginAt)
	}

	if (req.PayloadBytes == nil) == (req.PayloadPath == "") {
		return models.WritePlan{}, fmt.Errorf(
			"ingest: exactly one of payload bytes or path required: %w", apperr.ErrValidation)
	}

	data := req.PayloadBytes
	if data == nil {
		var err error
		data, err = os.ReadFile(req.PayloadPath)
		if err != nil {
			return models.WritePlan{}, fmt.Errorf("ingest: read payload: %w", err)
		}
	}

	size := int64(len(data))
	if size > s.cfg.MaxSizeBytes {
		return models.WritePlan{}, fmt.Errorf(
			"ingest: payload size %d bytes exceeds limit %d: %w", size, s.cfg.MaxSizeBytes, apperr.ErrTooLarge)
	}
	if size == 0 {
		return models.WritePlan{}, fmt.Errorf("ingest: payload is empty: %w", apperr.ErrValidation)
	}

	cls, err := classify.Classify(data, classify.Hints{
		Filename:        req.Filename,
		DeclaredMIME:    req.DeclaredMIME,
		RequestedFormat: req.RequestedFormat,
	})
	if err != nil {
		return models.WritePlan{}, err
	}

	plan := models.WritePlan{
		HashFull:     shortcode.HashFull(data),
		CodeMinLen:   s.cfg.MinCodeLength,
		Kind:         cls.Kind,
		Format:       cls.Format,
		SizeBytes:    size,
		UploadedAt:   time.Now().Unix(),
		OriginAt:     req.OriginAt,
		PayloadBytes: req.PayloadBytes,
		PayloadPath:  req.PayloadPath,
	}

	switch cls.Kind {
	case models.KindLink:
		u := strings.TrimSpace(string(data))
		if err := s.validateURL(u); err != nil {
			return models.WritePlan{}, err
		}
		plan.LinkURL = u
	case models.KindPicture:
		info, err := media.Info(data)
		if err != nil {
			return models.WritePlan{}, err
		}
		plan.Width = info.Width
		plan.Height = info.Height
	}
	return plan, nil
}

// buildLinkPlan is the explicit-link short circuit: no classification,
// no byte payload. The URL itself is the hashed content.
func (s *Service) buildLinkPlan(url string, originAt int64) (models.WritePlan, error) {
	if err := s.validateURL(url); err != nil {
		return models.WritePlan{}, err
	}
	data := []byte(url)
	return models.WritePlan{
		HashFull:   shortcode.HashFull(data),
		CodeMinLen: s.cfg.MinCodeLength,
		Kind:       models.KindLink,
		SizeBytes:  int64(len(data)),
		UploadedAt: time.Now().Unix(),
		OriginAt:   originAt,
		LinkURL:    url,
	}, nil
}

func (s *Service) validateURL(url string) error {
	if len(url) > s.cfg.MaxURLLength {
		return fmt.Errorf("ingest: URL length %d exceeds limit %d: %w",
			len(url), s.cfg.MaxURLLength, apperr.ErrValidation)
	}
	if err := validation.Validate(url, validation.Required, is.URL); err != nil {
		return fmt.Errorf("ingest: invalid URL %q: %w", url, apperr.ErrValidation)
	}
	return nil
}
