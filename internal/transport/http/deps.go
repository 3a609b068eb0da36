package http

import (
	"github.com/redibo/rental-api/internal/infrastructure/dynamo"
	"github.com/redibo/rental-api/internal/infrastructure/google"
	jwtinfra "github.com/redibo/rental-api/internal/infrastructure/jwt"
	s3infra "github.com/redibo/rental-api/internal/infrastructure/s3"
	"github.com/redibo/rental-api/internal/infrastructure/smtp"
	"github.com/redibo/rental-api/internal/infrastructure/sns"
	"github.com/redibo/rental-api/internal/infrastructure/sse"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	NotificationRepo *dynamo.NotificationRepo
	VehicleRepo      *dynamo.VehicleRepo
	ReservationRepo  *dynamo.ReservationRepo
	RentalRepo       *dynamo.RentalRepo
	RatingRepo       *dynamo.RatingRepo
	VerificationRepo *dynamo.VerificationRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender      // nil disables the SMS side channel
	GoogleVerifier   *google.Verifier   // nil disables Google sign-in
	JWTProvider      *jwtinfra.Provider
	SSERegistry      *sse.Registry
}
