package v1

import (
	"github.com/thumbgen/thumbnail-pipeline/internal/usecase"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
)

type V1 struct {
	ing    usecase.IngestUseCase
	qry    usecase.QueryUseCase
	logger logger.Interface
}
