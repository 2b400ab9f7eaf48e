package models

// ActionResult is the body of a successful write that carries no entity.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Result is the structured outcome handed to UI layers instead of an error value.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func OK() Result {
	return Result{Success: true}
}

func Failure(msg string) Result {
	return Result{Success: false, Error: msg}
}
