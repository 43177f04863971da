package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

// StatusResponse is the envelope used by the kiosk check-in/out JSON API.
type StatusResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"Check-in successful."`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
