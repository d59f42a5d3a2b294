package api

type MessageResponse struct {
	Message string `json:"message"`
}

type CreatedResponse struct {
	Message string `json:"message"`
	PostID  string `json:"post_id"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}
