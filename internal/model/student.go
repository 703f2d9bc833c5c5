package model

// Role distinguishes regular students from administrators.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Student is the logged-in user. Attempts mirrors the global attempt history
// filtered by this student's id.
type Student struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Role     Role          `json:"role"`
	Attempts []ExamAttempt `json:"attempts"`
}

// StudentLoginRequest is the payload for logging in.
type StudentLoginRequest struct {
	Name  string `json:"name" binding:"required,notblank,max=100"`
	Email string `json:"email" binding:"required,email,max=254"`
}
