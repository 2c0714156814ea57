package server

type EventPayload struct {
	SessionID   string `json:"session_id,omitempty"`
	JoinCode    string `json:"join_code,omitempty"`
	PlayerName  string `json:"player,omitempty"`
	PlayerID    int    `json:"player_id,omitempty"`
	RoundNumber int    `json:"round_number,omitempty"`
	Ready       bool   `json:"ready,omitempty"`
	Impostor    bool   `json:"impostor,omitempty"`
	Correct     bool   `json:"correct,omitempty"`
	Count       int    `json:"count,omitempty"`
	Reason      string `json:"reason,omitempty"`
}
