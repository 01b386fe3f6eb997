package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"DailyByte/internal/domain"
	"DailyByte/internal/ports"
)

// Sender hands the rendered digest to the email provider or writes a local preview.
type Sender struct {
	provider    ports.DeliveryProvider
	previewPath string
	logger      *slog.Logger
}

// NewSender wires the delivery provider and the preview destination.
func NewSender(provider ports.DeliveryProvider, previewPath string, logger *slog.Logger) *Sender {
	return &Sender{provider: provider, previewPath: previewPath, logger: orDiscard(logger)}
}

// Send delivers rendered. In preview mode no provider call is made.
func (s *Sender) Send(ctx context.Context, rendered domain.RenderedDigest, preview bool) (domain.DeliveryResult, error) {
	result := domain.DeliveryResult{
		Preview: preview,
		Subject: rendered.Subject,
		Body:    rendered.Body,
	}

	if preview {
		if err := s.writePreview(rendered); err != nil {
			return domain.DeliveryResult{}, err
		}
		result.Path = s.previewPath
		s.logger.Info("preview written", "path", s.previewPath, "subject", rendered.Subject)
		return result, nil
	}

	if s.provider == nil {
		return domain.DeliveryResult{}, fmt.Errorf("send: delivery provider is not configured")
	}
	id, err := s.provider.Deliver(ctx, rendered.Subject, rendered.Body)
	if err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("deliver digest: %w", err)
	}
	result.DeliveryID = id
	s.logger.Info("digest delivered", "delivery_id", id, "subject", rendered.Subject)
	return result, nil
}

func (s *Sender) writePreview(rendered domain.RenderedDigest) error {
	if s.previewPath == "" {
		return fmt.Errorf("write preview: preview path is empty")
	}
	if dir := filepath.Dir(s.previewPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preview dir: %w", err)
		}
	}
	doc := "# " + rendered.Subject + "\n\n" + rendered.Body
	if err := os.WriteFile(s.previewPath, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	return nil
}
