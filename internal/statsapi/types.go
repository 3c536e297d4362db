package statsapi

// Envelope is the backend's response wrapper for every endpoint.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *T     `json:"data"`
}

// Stats is the payload of GET /api/admin/stats. Every field is optional;
// nil means the backend did not send it. Counts are decoded as JSON numbers
// in any notation, so 1500, 1500.0 and 1.5e3 are all accepted.
type Stats struct {
	TotalUsers           *float64 `json:"totalUsers"`
	TotalWords           *float64 `json:"totalWords"`
	PendingContributions *float64 `json:"pendingContributions"`
}

// StatsResponse is the decoded body of a successful stats request.
type StatsResponse = Envelope[Stats]

// AuthResponse is the payload of POST /api/auth/login.
type AuthResponse struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
