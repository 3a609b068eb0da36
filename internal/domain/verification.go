package domain

// Verification codes: two-factor login codes and password recovery codes.
// PK: user_id, SK: type ("2fa" | "recovery").
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type Verification struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Type      string `json:"type" dynamodbav:"type"` // "2fa" | "recovery"
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

const (
	VerificationTwoFactor = "2fa"
	VerificationRecovery  = "recovery"
)
