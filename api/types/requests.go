package types

// CreateParableRequest represents a new parable submission
type CreateParableRequest struct {
	Title string `json:"title" binding:"required" example:"The Lost Coin"`
	Text  string `json:"text" binding:"required" example:"A woman had ten silver coins..."`
}

// TargetDurationRequest sets or clears a fragment's length in the final video.
// A null target restores the measured duration.
type TargetDurationRequest struct {
	TargetDuration *float64 `json:"target_duration" example:"3.5"`
}

// ListParablesQuery holds pagination parameters
type ListParablesQuery struct {
	Limit  int `form:"limit" example:"20"`
	Offset int `form:"offset" example:"0"`
}
