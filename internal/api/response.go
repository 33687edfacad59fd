package api

// StatusResponse is the JSON body of the location endpoints.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Address string `json:"address,omitempty"`
}

func statusResponse(status string) StatusResponse {
	return StatusResponse{Status: status}
}

func errorResponse(message string) StatusResponse {
	return StatusResponse{Status: "error", Message: message}
}
