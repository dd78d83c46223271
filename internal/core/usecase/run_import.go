package usecase

import (
	"context"
	"fmt"
	"time"

	"import-claim-service/internal/constants"
	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/normalizer"
	"import-claim-service/internal/core/port"
	"import-claim-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

// RunImportUseCase прогоняет адаптер источника через весь конвейер:
// дедупликация -> нормализация -> фотографии -> геокодирование -> сохранение.
// Любая проблема одной записи становится RowError и цикл продолжается;
// батч полезен даже частично проваленным и никогда не откатывается целиком.
// Фатальна только невозможность записать сам батч.
type RunImportUseCase struct {
	batches    port.BatchStoragePort
	properties port.PropertyStoragePort
	photos     usecases_port.ResolvePhotosPort
	geocoder   port.GeocoderPort
	reporter   port.EventReporterPort

	normalizeOpts normalizer.Options
}

func NewRunImportUseCase(
	batches port.BatchStoragePort,
	properties port.PropertyStoragePort,
	photos usecases_port.ResolvePhotosPort,
	geocoder port.GeocoderPort,
	reporter port.EventReporterPort,
	normalizeOpts normalizer.Options,
) *RunImportUseCase {
	return &RunImportUseCase{
		batches:       batches,
		properties:    properties,
		photos:        photos,
		geocoder:      geocoder,
		reporter:      reporter,
		normalizeOpts: normalizeOpts,
	}
}

func (uc *RunImportUseCase) Execute(ctx context.Context, source port.RecordSourcePort, meta domain.BatchMetadata) (*domain.ImportBatch, error) {
	baseLogger := contextkeys.LoggerFromContext(ctx)
	srcMeta := source.Metadata()

	batch := &domain.ImportBatch{
		ID:         uuid.New(),
		SourceKind: srcMeta.Kind,
		SourceName: srcMeta.Name,
		ExpiresAt:  meta.ExpiresAt,
		Notes:      meta.Notes,
		CreatedBy:  meta.CreatedBy,
		CreatedAt:  time.Now(),
	}

	ucLogger := baseLogger.WithFields(port.Fields{
		"use_case":    "RunImport",
		"batch_id":    batch.ID.String(),
		"source_kind": srcMeta.Kind,
		"source_name": srcMeta.Name,
	})
	ucLogger.Info("Use case started: creating provisional batch", nil)

	// 1. Предварительная запись батча. Это единственное место, где
	// ошибка хранилища прерывает импорт целиком.
	if err := uc.batches.CreateBatch(ctx, batch); err != nil {
		ucLogger.Error("Failed to create provisional batch", err, nil)
		return nil, fmt.Errorf("failed to create import batch: %w", err)
	}

	var (
		total    int
		imported int
		failed   int
		rowErrs  []domain.RowError
	)

	recordFailure := func(row int, message string) {
		failed++
		rowErrs = append(rowErrs, domain.RowError{Row: row, Message: message})
	}

	// 2. Прогон записей в порядке источника.
	streamErr := source.StreamRecords(ctx, func(raw domain.RawListing, rowErr *domain.RowError) bool {
		total++

		// Битая запись уже на уровне адаптера (неверное число колонок и т.п.)
		if rowErr != nil {
			recordFailure(rowErr.Row, rowErr.Message)
			return true
		}

		if err := uc.importRecord(ctx, batch, raw); err != nil {
			recordFailure(raw.Row, err.Error())
			return true
		}

		imported++
		return true
	})
	if streamErr != nil {
		// Поток оборвался (например, отмена контекста) - финализируем то,
		// что успели обработать, и отдаем ошибку вместе с батчем.
		ucLogger.Error("Record stream stopped prematurely", streamErr, port.Fields{"processed": total})

		// Поток не отдал ни одной записи (битый заголовок, пустой файл) -
		// импорт по сути не начался; предварительный батч подчищается,
		// чтобы не оставлять финализированную нулевую запись.
		if total == 0 {
			if _, delErr := uc.batches.DeleteBatch(ctx, batch.ID); delErr != nil {
				ucLogger.Error("Failed to clean up provisional batch", delErr, nil)
			}
			return nil, fmt.Errorf("import aborted before any records: %w", streamErr)
		}
	}

	// 3. Финализация счетчиков. Инвариант: imported + failed == total.
	batch.TotalRecords = total
	batch.ImportedCount = imported
	batch.FailedCount = failed
	batch.RowErrors = rowErrs

	if err := uc.batches.FinalizeBatch(ctx, batch.ID, total, imported, failed, rowErrs); err != nil {
		ucLogger.Error("Failed to finalize batch", err, nil)
		return batch, fmt.Errorf("failed to finalize import batch: %w", err)
	}

	ucLogger.Info("Import finished", port.Fields{
		"total":    total,
		"imported": imported,
		"failed":   failed,
	})

	if uc.reporter != nil {
		if err := uc.reporter.ReportBatchCompleted(ctx, batch); err != nil {
			// Сохранение прошло успешно, отчет не должен ронять импорт.
			ucLogger.Error("Failed to report batch completion", err, nil)
		}
	}

	if streamErr != nil {
		return batch, fmt.Errorf("import interrupted: %w", streamErr)
	}
	return batch, nil
}

// importRecord обрабатывает одну запись. Ошибка означает RowError,
// но не остановку импорта.
func (uc *RunImportUseCase) importRecord(ctx context.Context, batch *domain.ImportBatch, raw domain.RawListing) error {
	logger := contextkeys.LoggerFromContext(ctx)
	recLogger := logger.WithFields(port.Fields{
		"use_case": "RunImport",
		"batch_id": batch.ID.String(),
		"row":      raw.Row,
	})

	// a. Дедупликация по внешнему идентификатору - раньше любых внешних
	// запросов, чтобы не жечь лимиты фетчера на дубликаты.
	if externalID := raw.Fields[constants.FieldExternalID]; externalID != "" {
		exists, err := uc.properties.ExternalIDExists(ctx, batch.SourceKind, externalID)
		if err != nil {
			return fmt.Errorf("dedup check failed: %v", err)
		}
		if exists {
			recLogger.Debug("Skipping duplicate external listing", port.Fields{"external_id": externalID})
			return domain.ErrAlreadyImported
		}
	}

	// b. Нормализация
	record, err := normalizer.Normalize(raw, uc.normalizeOpts)
	if err != nil {
		return err
	}

	// c. Фотографии: цепочка фолбэков, пустой результат допустим
	images := uc.photos.Resolve(ctx, &record)

	// d. Геокодирование, только если координат нет. Неудача не фатальна -
	// объект сохраняется без координат.
	if record.Coordinates == nil && uc.geocoder != nil {
		point, geoErr := uc.geocoder.Geocode(ctx, record.Address, record.City, record.State, record.ZipCode)
		if geoErr != nil {
			recLogger.Warn("Geocoding failed, persisting without coordinates", port.Fields{"error": geoErr.Error()})
		} else {
			record.Coordinates = point
		}
	}

	token, err := domain.NewClaimToken()
	if err != nil {
		return fmt.Errorf("failed to generate claim token: %v", err)
	}

	property := &domain.ImportedProperty{
		ID:            uuid.New(),
		ListingRecord: record,
		Images:        images,
		ImportSource:  batch.SourceKind,
		ImportBatchID: batch.ID,

		ClaimToken:     token,
		ClaimExpiresAt: batch.ExpiresAt,

		// Импорт запускает администратор, модерация не нужна.
		// Активируется объект только в момент claim'а.
		IsActive:       false,
		ForSale:        false,
		ApprovalStatus: domain.ApprovalStatusApproved,

		CreatedAt: time.Now(),
	}

	// e. Сохранение. Ошибка персистенции - тоже RowError.
	if err := uc.properties.SaveProperty(ctx, property); err != nil {
		recLogger.Error("Failed to persist property", err, nil)
		return fmt.Errorf("failed to save property: %v", err)
	}

	return nil
}
