package domain

import "time"

type VehicleImage struct {
	URL string `json:"direccionImagen" dynamodbav:"url"`
}

type Vehicle struct {
	VehicleID   string         `json:"id" dynamodbav:"vehicle_id"`
	HostID      string         `json:"idHost" dynamodbav:"host_id"`
	Brand       string         `json:"marca" dynamodbav:"brand"`
	Model       string         `json:"modelo" dynamodbav:"model"`
	Year        int            `json:"anio" dynamodbav:"year"`
	Plate       string         `json:"placa" dynamodbav:"plate"`
	PricePerDay float64        `json:"precioPorDia" dynamodbav:"price_per_day"`
	Images      []VehicleImage `json:"imagenes" dynamodbav:"images"`
	Enable      bool           `json:"habilitado" dynamodbav:"enable"`
	CreatedAt   time.Time      `json:"creadoEn" dynamodbav:"created_at"`
	UpdatedAt   time.Time      `json:"actualizadoEn" dynamodbav:"updated_at"`
}

// FirstImageURL returns the URL of the vehicle's first image, or nil when the
// vehicle has no images. Used by the notification image enrichment.
func (v *Vehicle) FirstImageURL() *string {
	if v == nil || len(v.Images) == 0 {
		return nil
	}
	return &v.Images[0].URL
}

type CreateVehicleRequest struct {
	Brand       string  `json:"marca" validate:"required"`
	Model       string  `json:"modelo" validate:"required"`
	Year        int     `json:"anio" validate:"required,gte=1950"`
	Plate       string  `json:"placa" validate:"required"`
	PricePerDay float64 `json:"precioPorDia" validate:"required,gt=0"`
}

type UpdateVehicleRequest struct {
	Brand       *string  `json:"marca"`
	Model       *string  `json:"modelo"`
	Year        *int     `json:"anio"`
	PricePerDay *float64 `json:"precioPorDia"`
}
