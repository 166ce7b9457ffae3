package domain

// PlaybackState is the state of the playback clock.
type PlaybackState string

const (
	StatePlaying PlaybackState = "playing" // Cursor advances on every tick
	StatePaused  PlaybackState = "paused"  // Cursor holds; fetches still complete
)

// Status is a point-in-time view of one playback session.
type Status struct {
	SessionID string        `json:"session_id"`
	State     PlaybackState `json:"state"`
	Following bool          `json:"following"`

	Cursor           int     `json:"cursor"`
	Buffered         int     `json:"buffered"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	ElapsedYears     float64 `json:"elapsed_years"`
	FramesPlayed     uint64  `json:"frames_played"`

	FetchInFlight bool `json:"fetch_in_flight"`
	FailureStreak int  `json:"failure_streak"`
	Stalled       bool `json:"stalled"`
	Closed        bool `json:"closed"`
}
