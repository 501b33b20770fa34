package ports

import "github.com/genc-murat/fragbench/internal/core/models"

type ResultWriter interface {
	Write(rows []models.Row) error
	Path() string
	Close() error
}
