package dto

import "time"

type SOSRequest struct {
	UserID  string   `json:"userId" validate:"required,max=128"`
	Lat     *float64 `json:"lat" validate:"required,latitude"`
	Lng     *float64 `json:"lng" validate:"required,longitude"`
	Message string   `json:"message" validate:"max=1000"`
}

type SOSResponse struct {
	Status    string    `json:"status"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
