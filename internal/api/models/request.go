package models

// LoginRequest represents authentication login request
type LoginRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password" example:"admin123"`
}

// BatchRequest carries the ordered applicant records of a batch prediction.
// Records stay untyped until the validator has checked them.
type BatchRequest struct {
	Students []interface{} `json:"students"`
}
