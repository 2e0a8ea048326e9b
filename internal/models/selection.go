package models

// Selection is the per-user dashboard view state: which resource and day the
// user is currently looking at. It lives in the state repository keyed by
// user, never in process-wide variables.
type Selection struct {
	UserID   int64  `json:"user_id"`
	Building string `json:"building"`
	Floor    string `json:"floor"`
	Room     string `json:"room"`
	Date     string `json:"date,omitempty"`
}
