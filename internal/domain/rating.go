package domain

import "time"

// Rating left by one party of a finished rental about the other.
type Rating struct {
	RatingID    string    `json:"idCalificacion" dynamodbav:"rating_id"`
	RentalID    string    `json:"idRenta" dynamodbav:"rental_id"`
	RaterID     string    `json:"idCalificador" dynamodbav:"rater_id"`
	RatedUserID string    `json:"idUsuario" dynamodbav:"rated_user_id"`
	Score       int       `json:"puntuacion" dynamodbav:"score"`
	Comment     string    `json:"comentario" dynamodbav:"comment"`
	CreatedAt   time.Time `json:"creadoEn" dynamodbav:"created_at"`
}

type CreateRatingRequest struct {
	RentalID string `json:"idRenta" validate:"required"`
	Score    int    `json:"puntuacion" validate:"required,min=1,max=5"`
	Comment  string `json:"comentario"`
}
