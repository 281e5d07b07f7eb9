package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/keyword-intelligence/internal/core/domain"
	"github.com/kirillkom/keyword-intelligence/internal/core/ports"
)

// ArchiveRecordUseCase persists records announced by the API.
type ArchiveRecordUseCase struct {
	archive ports.RecordArchive
}

func NewArchiveRecordUseCase(archive ports.RecordArchive) *ArchiveRecordUseCase {
	return &ArchiveRecordUseCase{archive: archive}
}

func (uc *ArchiveRecordUseCase) Archive(ctx context.Context, record domain.ExtractionRecord) error {
	if strings.TrimSpace(record.ID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "archive record", errors.New("record id is empty"))
	}
	if strings.TrimSpace(record.Text) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "archive record", errors.New("record text is empty"))
	}
	if err := uc.archive.Save(ctx, record); err != nil {
		return fmt.Errorf("save record %s: %w", record.ID, err)
	}
	return nil
}

func (uc *ArchiveRecordUseCase) GetByID(ctx context.Context, id string) (*domain.ExtractionRecord, error) {
	record, err := uc.archive.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch record by id: %w", err)
	}
	return record, nil
}
