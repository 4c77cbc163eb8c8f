package repository

import "github.com/jhoicas/ferrepos-core/internal/domain/entity"

// LocationRepository define el puerto de lectura de sucursales.
type LocationRepository interface {
	GetByID(id string) (*entity.Location, error)
}
